package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bastiangx/pickserve/internal/utils"
	"github.com/bastiangx/pickserve/pkg/option"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Format is a catalog file format.
type Format int

const (
	FormatUnknown Format = iota
	FormatTOML           // [[option]] tables
	FormatSnapshot       // msgpack encoded File
	FormatText           // one "value<TAB>label" or "label" per line
)

// ErrUnknownFormat is returned for files whose extension maps to no format.
var ErrUnknownFormat = errors.New("unknown catalog format")

// FormatInfo contains metadata about a catalog file format
type FormatInfo struct {
	Format      Format
	Description string
	Extensions  []string
}

var supportedFormats = []FormatInfo{
	{Format: FormatTOML, Description: "TOML catalog", Extensions: []string{".toml"}},
	{Format: FormatSnapshot, Description: "MessagePack snapshot", Extensions: []string{".bin", ".msgpack"}},
	{Format: FormatText, Description: "Plain text list", Extensions: []string{".txt"}},
}

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, info := range supportedFormats {
		for _, e := range info.Extensions {
			if e == ext {
				return info.Format, nil
			}
		}
	}
	return FormatUnknown, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format Format) (FormatInfo, bool) {
	for _, info := range supportedFormats {
		if info.Format == format {
			return info, true
		}
	}
	return FormatInfo{}, false
}

// ReadFile decodes a catalog file in any supported format.
func ReadFile(path string) (File, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return File{}, err
	}

	var f File
	switch format {
	case FormatTOML:
		err = utils.LoadTOMLFile(path, &f)
	case FormatSnapshot:
		err = readSnapshot(path, &f)
	case FormatText:
		f.Options, err = readText(path)
	}
	if err != nil {
		return File{}, err
	}
	log.Debugf("Read %d options from %s", len(f.Options), path)
	return f, nil
}

// WriteFile encodes f in the format given by the extension of path.
func WriteFile(path string, f File) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	switch format {
	case FormatTOML:
		return utils.SaveTOMLFile(f, path)
	case FormatSnapshot:
		data, err := msgpack.Marshal(&f)
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		return os.WriteFile(path, data, 0644)
	}
	info, _ := GetFormatInfo(format)
	return fmt.Errorf("writing %s is not supported", info.Description)
}

func readSnapshot(path string, f *File) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("snapshot %s is empty", path)
	}
	if err := msgpack.Unmarshal(data, f); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return nil
}

// readText reads one option per line. Blank lines and lines starting with
// '#' are skipped; a line without a tab is used as both label and value.
func readText(path string) ([]option.Option, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var opts []option.Option
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		value, label, found := strings.Cut(line, "\t")
		if !found {
			label = value
		}
		opts = append(opts, option.Option{Label: strings.TrimSpace(label), Value: strings.TrimSpace(value)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return opts, nil
}
