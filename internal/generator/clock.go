package generator

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// SourceDateEpochEnv is the reproducible-builds override for banner stamps.
const SourceDateEpochEnv = "SOURCE_DATE_EPOCH"

// Stamp returns the banner timestamp: SOURCE_DATE_EPOCH when set, otherwise
// now. Both are UTC.
func Stamp(now func() time.Time) (time.Time, error) {
	raw := strings.TrimSpace(os.Getenv(SourceDateEpochEnv))
	if raw == "" {
		return now().UTC(), nil
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || secs < 0 {
		return time.Time{}, fmt.Errorf("%s=%q is not a non-negative integer", SourceDateEpochEnv, raw)
	}
	return time.Unix(secs, 0).UTC(), nil
}
