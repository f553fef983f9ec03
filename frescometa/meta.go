// Package frescometa provides typed accessors for the string attributes
// stored in a FRESCO container.
//
// Attributes travel as a plain map[string]string (EncodeParams.Attributes
// on the way in, Read on the way out). The helpers here give the common
// keys a name and a typed encoding:
//
//	attrs := map[string]string{}
//	frescometa.SetOwner(attrs, "Studio XYZ")
//	frescometa.SetFramesPerSecond(attrs, frescometa.FPS24)
//	frescometa.SetISOSpeed(attrs, 800)
//
//	p := fresco.DefaultEncodeParams()
//	p.Attributes = attrs
package frescometa

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mrjoshuak/go-fresco/container"
)

// Standard attribute names
const (
	// Production metadata
	AttrOwner           = "owner"
	AttrComments        = "comments"
	AttrCopyright       = "copyright"
	AttrSoftware        = "software"
	AttrCapDate         = "capDate"
	AttrUTCOffset       = "utcOffset"
	AttrFramesPerSecond = "framesPerSecond"
	AttrImageCounter    = "imageCounter"

	// Camera properties
	AttrAperture = "aperture"
	AttrFocus    = "focus"
	AttrISOSpeed = "isoSpeed"
	AttrExpTime  = "expTime"

	// Camera and lens identification
	AttrCameraMake         = "cameraMake"
	AttrCameraModel        = "cameraModel"
	AttrCameraSerialNumber = "cameraSerialNumber"
	AttrLensMake           = "lensMake"
	AttrLensModel          = "lensModel"

	// Geolocation
	AttrLongitude = "longitude"
	AttrLatitude  = "latitude"
	AttrAltitude  = "altitude"
)

// Read returns the attributes of a container, or nil when it has none.
// The whole container is validated.
func Read(data []byte) (map[string]string, error) {
	f, err := container.Parse(data)
	if err != nil {
		return nil, err
	}
	return f.Attributes, nil
}

// ===========================================
// Production Metadata
// ===========================================

// SetOwner sets the file owner/creator.
func SetOwner(a map[string]string, owner string) { a[AttrOwner] = owner }

// Owner returns the file owner/creator, or empty string if not set.
func Owner(a map[string]string) string { return a[AttrOwner] }

// SetComments sets free-form comments.
func SetComments(a map[string]string, comments string) { a[AttrComments] = comments }

// Comments returns the comments, or empty string if not set.
func Comments(a map[string]string) string { return a[AttrComments] }

// SetCopyright sets the copyright notice.
func SetCopyright(a map[string]string, s string) { a[AttrCopyright] = s }

// Copyright returns the copyright notice, or empty string if not set.
func Copyright(a map[string]string) string { return a[AttrCopyright] }

// SetSoftware records the producing software.
func SetSoftware(a map[string]string, s string) { a[AttrSoftware] = s }

// Software returns the producing software, or empty string if not set.
func Software(a map[string]string) string { return a[AttrSoftware] }

// SetImageCounter sets the frame/image counter.
func SetImageCounter(a map[string]string, n int) { a[AttrImageCounter] = strconv.Itoa(n) }

// ImageCounter returns the frame/image counter and whether it is set.
func ImageCounter(a map[string]string) (int, bool) {
	n, err := strconv.Atoi(a[AttrImageCounter])
	return n, err == nil
}

// SetCapDate stores the capture time in RFC 3339 form, keeping its zone.
func SetCapDate(a map[string]string, t time.Time) {
	a[AttrCapDate] = t.Format(time.RFC3339Nano)
}

// CapDate returns the capture time. Returns false if unset or malformed.
func CapDate(a map[string]string) (time.Time, bool) {
	s, ok := a[AttrCapDate]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	return t, err == nil
}

// SetUTCOffset sets the UTC offset in seconds.
func SetUTCOffset(a map[string]string, seconds float32) { setFloat(a, AttrUTCOffset, seconds) }

// UTCOffset returns the UTC offset in seconds, or 0 if not set.
func UTCOffset(a map[string]string) float32 { return getFloat(a, AttrUTCOffset) }

// ===========================================
// Frame Rates
// ===========================================

// Rational is an exact frame rate.
type Rational struct {
	Num   int32
	Denom uint32
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Denom)
}

// ParseRational parses "num/denom" or a bare integer.
func ParseRational(s string) (Rational, error) {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseInt(num, 10, 32)
	if err != nil {
		return Rational{}, fmt.Errorf("frescometa: rational %q: %w", s, err)
	}
	if !found {
		return Rational{Num: int32(n), Denom: 1}, nil
	}
	d, err := strconv.ParseUint(den, 10, 32)
	if err != nil {
		return Rational{}, fmt.Errorf("frescometa: rational %q: %w", s, err)
	}
	return Rational{Num: int32(n), Denom: uint32(d)}, nil
}

// Standard frame rates
var (
	FPS23976 = Rational{Num: 24000, Denom: 1001} // NTSC film pulldown
	FPS24    = Rational{Num: 24, Denom: 1}
	FPS25    = Rational{Num: 25, Denom: 1} // PAL
	FPS2997  = Rational{Num: 30000, Denom: 1001}
	FPS30    = Rational{Num: 30, Denom: 1}
	FPS50    = Rational{Num: 50, Denom: 1}
	FPS5994  = Rational{Num: 60000, Denom: 1001}
	FPS60    = Rational{Num: 60, Denom: 1}
)

// SetFramesPerSecond sets the frame rate.
func SetFramesPerSecond(a map[string]string, r Rational) { a[AttrFramesPerSecond] = r.String() }

// FramesPerSecond returns the frame rate, or nil if not set or malformed.
func FramesPerSecond(a map[string]string) *Rational {
	s, ok := a[AttrFramesPerSecond]
	if !ok {
		return nil
	}
	r, err := ParseRational(s)
	if err != nil {
		return nil
	}
	return &r
}

// RationalToFloat converts a Rational to a float64.
func RationalToFloat(r Rational) float64 {
	if r.Denom == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Denom)
}

// FloatToRational finds a rational approximation of f with a denominator
// no larger than maxDenom (0 selects 1001). Standard rates match exactly.
func FloatToRational(f float64, maxDenom int32) Rational {
	if maxDenom <= 0 {
		maxDenom = 1001
	}
	if f <= 0 {
		return Rational{Num: 0, Denom: 1}
	}
	for _, r := range []Rational{FPS23976, FPS24, FPS25, FPS2997, FPS30, FPS50, FPS5994, FPS60} {
		if d := f - RationalToFloat(r); d < 0.0001 && d > -0.0001 {
			return r
		}
	}
	return continuedFraction(f, maxDenom)
}

// IsDropFrame reports whether r is an NTSC drop-frame rate.
func IsDropFrame(r Rational) bool {
	return r.Denom == 1001 && (r.Num == 24000 || r.Num == 30000 || r.Num == 60000)
}

func continuedFraction(f float64, maxDenom int32) Rational {
	var (
		n0, n1 int32 = 0, 1
		d0, d1 int32 = 1, 0
	)
	x := f
	for i := 0; i < 20; i++ {
		a := int32(x)
		n := a*n1 + n0
		d := a*d1 + d0
		if d > maxDenom {
			break
		}
		n0, n1 = n1, n
		d0, d1 = d1, d
		frac := x - float64(a)
		if frac < 1e-10 {
			break
		}
		x = 1 / frac
	}
	return Rational{Num: n1, Denom: uint32(d1)}
}

// ===========================================
// Camera Properties
// ===========================================

// SetAperture sets the lens aperture (f-number).
func SetAperture(a map[string]string, fNumber float32) { setFloat(a, AttrAperture, fNumber) }

// Aperture returns the lens aperture, or 0 if not set.
func Aperture(a map[string]string) float32 { return getFloat(a, AttrAperture) }

// SetFocus sets the focus distance in meters.
func SetFocus(a map[string]string, meters float32) { setFloat(a, AttrFocus, meters) }

// Focus returns the focus distance in meters, or 0 if not set.
func Focus(a map[string]string) float32 { return getFloat(a, AttrFocus) }

// SetISOSpeed sets the ISO sensitivity.
func SetISOSpeed(a map[string]string, iso float32) { setFloat(a, AttrISOSpeed, iso) }

// ISOSpeed returns the ISO sensitivity, or 0 if not set.
func ISOSpeed(a map[string]string) float32 { return getFloat(a, AttrISOSpeed) }

// SetExpTime sets the exposure time in seconds.
func SetExpTime(a map[string]string, seconds float32) { setFloat(a, AttrExpTime, seconds) }

// ExpTime returns the exposure time in seconds, or 0 if not set.
func ExpTime(a map[string]string) float32 { return getFloat(a, AttrExpTime) }

// ===========================================
// Camera Identification
// ===========================================

// CameraInfo groups the camera and lens identification attributes.
type CameraInfo struct {
	Make         string
	Model        string
	SerialNumber string
	LensMake     string
	LensModel    string
}

// SetCameraInfo sets every non-empty field of info.
func SetCameraInfo(a map[string]string, info CameraInfo) {
	for k, v := range map[string]string{
		AttrCameraMake:         info.Make,
		AttrCameraModel:        info.Model,
		AttrCameraSerialNumber: info.SerialNumber,
		AttrLensMake:           info.LensMake,
		AttrLensModel:          info.LensModel,
	} {
		if v != "" {
			a[k] = v
		}
	}
}

// GetCameraInfo returns the camera identification attributes.
func GetCameraInfo(a map[string]string) CameraInfo {
	return CameraInfo{
		Make:         a[AttrCameraMake],
		Model:        a[AttrCameraModel],
		SerialNumber: a[AttrCameraSerialNumber],
		LensMake:     a[AttrLensMake],
		LensModel:    a[AttrLensModel],
	}
}

// ===========================================
// Geolocation
// ===========================================

// Location is a WGS 84 position; altitude in meters.
type Location struct {
	Longitude float32
	Latitude  float32
	Altitude  float32
}

// SetLocation sets the geolocation attributes.
func SetLocation(a map[string]string, loc Location) {
	setFloat(a, AttrLongitude, loc.Longitude)
	setFloat(a, AttrLatitude, loc.Latitude)
	setFloat(a, AttrAltitude, loc.Altitude)
}

// GetLocation returns the geolocation, or nil unless latitude and
// longitude are both set.
func GetLocation(a map[string]string) *Location {
	_, hasLon := a[AttrLongitude]
	_, hasLat := a[AttrLatitude]
	if !hasLon || !hasLat {
		return nil
	}
	return &Location{
		Longitude: getFloat(a, AttrLongitude),
		Latitude:  getFloat(a, AttrLatitude),
		Altitude:  getFloat(a, AttrAltitude),
	}
}

// ===========================================
// Helper functions
// ===========================================

func setFloat(a map[string]string, name string, v float32) {
	a[name] = strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func getFloat(a map[string]string, name string) float32 {
	f, err := strconv.ParseFloat(a[name], 32)
	if err != nil {
		return 0
	}
	return float32(f)
}
