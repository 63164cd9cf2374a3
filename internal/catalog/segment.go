package catalog

import (
	"regexp"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/typenode"
)

// SegmentKind classifies one concrete path segment.
type SegmentKind int

const (
	SegmentStatic SegmentKind = iota
	SegmentInteger
	SegmentUUID
	SegmentObjectID
	SegmentToken
)

var (
	numericPattern  = regexp.MustCompile(`^\d+$`)
	objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	tokenPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	versionPattern  = regexp.MustCompile(`(?i)^v\d+([a-z]+\d*)?$`)
)

const strongTokenMinLen = 16

// ClassifySegment reports the kind of a segment and whether the evidence is
// strong enough to template it from a single observation.
func (d *Detector) ClassifySegment(s string) (SegmentKind, bool) {
	switch {
	case numericPattern.MatchString(s):
		return SegmentInteger, len(s) > d.opts.ShortNumericMaxLen
	case typenode.IsCanonicalUUID(s):
		return SegmentUUID, true
	case objectIDPattern.MatchString(s):
		return SegmentObjectID, true
	case d.isToken(s):
		return SegmentToken, len(s) >= strongTokenMinLen
	}
	return SegmentStatic, false
}

// isToken is the "probably an identifier" heuristic: URL-safe, long enough,
// mixing letters and digits, and not an API version marker.
func (d *Detector) isToken(s string) bool {
	if len(s) < d.opts.TokenMinLen || !tokenPattern.MatchString(s) || versionPattern.MatchString(s) {
		return false
	}
	var letters, digits bool
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			letters = true
		}
	}
	return letters && digits
}

func (d *Detector) dynamic(s string) bool {
	kind, _ := d.ClassifySegment(s)
	return kind != SegmentStatic
}

// paramKind is the narrowest kind every observed value agrees on.
func (d *Detector) paramKind(values []string) apimodel.ParamKind {
	var kind SegmentKind = -1
	for _, v := range values {
		k, _ := d.ClassifySegment(v)
		if kind == -1 {
			kind = k
		} else if kind != k {
			return apimodel.ParamToken
		}
	}
	switch kind {
	case SegmentInteger:
		return apimodel.ParamInteger
	case SegmentUUID:
		return apimodel.ParamUUID
	case SegmentObjectID:
		return apimodel.ParamObjectID
	}
	return apimodel.ParamToken
}
