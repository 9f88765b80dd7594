package scene

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ivlev/frameline/internal/system"
)

// GeneratePath creates a timestamped scene filename in dir
func GeneratePath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("scene_%s.yaml", now.Format("2006-01-02_15-04-05")))
}

// FindLatest finds the most recently modified scene file in dir
func FindLatest(dir string) (string, error) {
	return system.FindLatestScene(dir)
}
