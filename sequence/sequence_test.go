package sequence

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mrjoshuak/go-ledcal/colorspace"
	"github.com/mrjoshuak/go-ledcal/sampler"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestOpenScansNumberedFrames(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "plate_v002.1003.exr")
	touch(t, dir, "plate_v002.1001.exr")
	touch(t, dir, "plate_v002.1002.exr")
	touch(t, dir, "notes.txt")
	touch(t, dir, "thumbnail.jpg")

	seq, err := Open(Config{Dir: dir, PlateColorSpace: colorspace.ACES2065})
	if err != nil {
		t.Fatal(err)
	}
	first, last := seq.FrameRange()
	if first != 1001 || last != 1003 {
		t.Errorf("FrameRange = %d-%d, want 1001-1003", first, last)
	}
	if got := seq.PlateColorSpace(); got != colorspace.ACES2065 {
		t.Errorf("PlateColorSpace = %q, want %q", got, colorspace.ACES2065)
	}
}

func TestOpenNoFrames(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "readme.md")

	_, err := Open(Config{Dir: dir, PlateColorSpace: colorspace.ACES2065})
	if !errors.Is(err, ErrNoFrames) {
		t.Errorf("err = %v, want ErrNoFrames", err)
	}
}

func TestOpenMissingDir(t *testing.T) {
	_, err := Open(Config{Dir: "/no/such/directory", PlateColorSpace: colorspace.ACES2065})
	if err == nil {
		t.Error("expected error for a missing directory")
	}
}

func TestExtractRegionMissingFrame(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "plate.0001.exr")

	seq, err := Open(Config{Dir: dir, PlateColorSpace: colorspace.ACES2065})
	if err != nil {
		t.Fatal(err)
	}
	_, err = seq.ExtractRegion(42, sampler.ROI{Width: 1, Height: 1})
	if !errors.Is(err, ErrMissingFrame) {
		t.Errorf("err = %v, want ErrMissingFrame", err)
	}
}

func TestFrameNumberPattern(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"plate.1001.exr", "1001"},
		{"shot_v002.0042.exr", "0042"},
		{"0001.exr", "0001"},
		{"plate.exr", ""},
		{"plate.1001.dpx", ""},
		{"plate.1001.exr.bak", ""},
	}
	for _, tt := range tests {
		m := frameNumber.FindStringSubmatch(tt.name)
		switch {
		case tt.want == "" && m != nil:
			t.Errorf("%q matched %q, want no match", tt.name, m[1])
		case tt.want != "" && m == nil:
			t.Errorf("%q did not match, want %q", tt.name, tt.want)
		case tt.want != "" && m[1] != tt.want:
			t.Errorf("%q matched %q, want %q", tt.name, m[1], tt.want)
		}
	}
}
