package product

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Errors that can be checked with errors.Is().
var (
	// ErrUnsupportedType is returned for product names that do not begin
	// with S1 or S2. Only Sentinel-1 and Sentinel-2 products have a
	// SAFE-to-NetCDF conversion.
	ErrUnsupportedType = errors.New("unsupported product type")

	// ErrBadName is returned for product names missing the fields the
	// archive layout is derived from.
	ErrBadName = errors.New("invalid product name")
)

// Missions with a NetCDF conversion.
const (
	MissionS1 = "S1"
	MissionS2 = "S2"
)

// sensingDateRE matches the sensing start date embedded in every
// Sentinel product name, e.g. the 20260815T043000 field.
var sensingDateRE = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})T`)

// Product is a parsed Sentinel product name. The name encodes
// everything needed to place the product in the archive tree: the
// platform field, the sensing date, and for Sentinel-1 the acquisition
// mode.
type Product struct {
	// Name is the full product name, without any file extension.
	Name string

	// Mission is "S1" or "S2".
	Mission string

	// Type is the platform field of the name, e.g. "S1A" or "S2B".
	Type string

	// Beam is the Sentinel-1 acquisition mode field, e.g. "EW" or "IW".
	// Empty for Sentinel-2 products.
	Beam string

	// Sensed is the sensing start date, at UTC midnight.
	Sensed time.Time
}

// Supported reports whether name belongs to a mission this service can
// convert. Unsupported names are skipped by the pipeline, not failed.
func Supported(name string) bool {
	return strings.HasPrefix(name, MissionS1) || strings.HasPrefix(name, MissionS2)
}

// Parse parses a Sentinel product name.
//
// The platform type is the first underscore-separated field and must
// begin with S1 or S2. The sensing date is the first date field in the
// name. Sentinel-1 names also carry the acquisition mode as their
// second field.
func Parse(name string) (*Product, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrBadName)
	}

	fields := strings.Split(name, "_")
	ptype := fields[0]

	var mission string
	switch {
	case strings.HasPrefix(ptype, MissionS1):
		mission = MissionS1
	case strings.HasPrefix(ptype, MissionS2):
		mission = MissionS2
	default:
		return nil, fmt.Errorf("%w: %q does not begin with S1 or S2", ErrUnsupportedType, name)
	}

	m := sensingDateRE.FindStringSubmatch(name)
	if m == nil {
		return nil, fmt.Errorf("%w: no sensing date in %q", ErrBadName, name)
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	sensed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if sensed.Year() != year || int(sensed.Month()) != month || sensed.Day() != day {
		return nil, fmt.Errorf("%w: impossible sensing date %q in %q", ErrBadName, m[0], name)
	}

	p := &Product{
		Name:    name,
		Mission: mission,
		Type:    ptype,
		Sensed:  sensed,
	}

	if mission == MissionS1 {
		if len(fields) < 2 || fields[1] == "" {
			return nil, fmt.Errorf("%w: S1 name %q has no acquisition mode field", ErrBadName, name)
		}
		p.Beam = fields[1]
	}

	return p, nil
}

// RelativeDir returns the product's directory inside an archive root.
// Sentinel-1 trees add the acquisition mode below the date:
//
//	S1A/2026/08/15/EW
//	S2B/2026/08/01
func (p *Product) RelativeDir() string {
	year := p.Sensed.Format("2006")
	month := p.Sensed.Format("01")
	day := p.Sensed.Format("02")

	if p.Mission == MissionS1 {
		return filepath.Join(p.Type, year, month, day, p.Beam)
	}
	return filepath.Join(p.Type, year, month, day)
}

// NetCDFName returns the product's NetCDF file name.
func (p *Product) NetCDFName() string {
	return p.Name + ".nc"
}

// OperationalPath returns the product's NetCDF path under the
// operational archive root.
func (p *Product) OperationalPath(root string) string {
	return filepath.Join(root, p.RelativeDir(), p.NetCDFName())
}

// TmpNetCDFPath returns the product's NetCDF path in tmp storage.
func (p *Product) TmpNetCDFPath(tmpDir string) string {
	return filepath.Join(tmpDir, p.NetCDFName())
}

// TmpArchivePath returns the downloaded archive path in tmp storage.
func (p *Product) TmpArchivePath(tmpDir string) string {
	return filepath.Join(tmpDir, p.Name+".zip")
}

// TmpSAFEArchivePath returns the alternate archive path some hub
// downloads produce, with the .SAFE.zip double extension.
func (p *Product) TmpSAFEArchivePath(tmpDir string) string {
	return filepath.Join(tmpDir, p.Name+".SAFE.zip")
}
