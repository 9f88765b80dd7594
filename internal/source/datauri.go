package source

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/vincent-petithory/dataurl"
)

// EncodeDataURI serializes img as a base64 PNG data URI.
func EncodeDataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return dataurl.New(buf.Bytes(), "image/png").String(), nil
}

// FileDataURI reads a file into a data URI, guessing the media type from the
// extension.
func FileDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mt := "application/octet-stream"
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		if parsed, _, err := mime.ParseMediaType(byExt); err == nil {
			mt = parsed
		}
	}
	return dataurl.New(data, mt).String(), nil
}

// DecodeDataURI splits a base64 data URI into its payload and media type.
func DecodeDataURI(uri string) ([]byte, string, error) {
	du, err := dataurl.DecodeString(uri)
	if err != nil {
		return nil, "", err
	}
	if du.Encoding != dataurl.EncodingBase64 {
		return nil, "", errors.New("data uri is not base64 encoded")
	}
	return du.Data, du.ContentType(), nil
}
