package properties

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

func RootPath() string {
	return os.Getenv("ROOT_PATH")
}

// OutputPath is where mask products are written, FMASK_OUTPUT_PATH or
// <root>/data/result.
func OutputPath() string {
	if p := os.Getenv("FMASK_OUTPUT_PATH"); p != "" {
		return p
	}
	return filepath.Join(RootPath(), "data", "result")
}

// CachePath holds the cached scene reports.
func CachePath() string {
	return filepath.Join(RootPath(), "data", "cache")
}

// Workers is the size of the band reader and writer pools.
func Workers() int {
	n, err := strconv.Atoi(os.Getenv("FMASK_WORKERS"))
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

func Debug() bool {
	switch strings.ToLower(os.Getenv("FMASK_DEBUG")) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

type Color struct {
	R, G, B uint8
}

// ColorMap colors the quicklook classes.
var ColorMap = map[string]Color{
	"null":   {0, 0, 0},
	"clear":  {34, 139, 34},
	"cloud":  {255, 255, 255},
	"shadow": {64, 64, 64},
	"snow":   {0, 255, 255},
	"water":  {0, 0, 255},
}
