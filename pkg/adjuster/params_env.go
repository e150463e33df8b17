package adjuster

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables read by EnvSource.
const (
	// EnvRenewalInterval holds the cap renewal interval in whole seconds.
	EnvRenewalInterval = "GAS_MAX_PRICE_RENEWAL_INTERVAL"

	// EnvScaleFactor holds the multiplier applied to the average price.
	EnvScaleFactor = "GAS_MAX_PRICE_SCALE_FACTOR"
)

var errNotSet = errors.New("not set")

// MisconfigError reports a required setting that is absent or
// unparseable. It is never recovered from: a process without a
// defined gas price cap must not submit transactions.
type MisconfigError struct {
	Name string
	Err  error
}

func (e *MisconfigError) Error() string {
	return fmt.Sprintf("misconfigured %s: %v", e.Name, e.Err)
}

func (e *MisconfigError) Unwrap() error {
	return e.Err
}

// EnvSource reads the adjuster tunables from the process environment
// on every call. Nothing is memoized, so changes made to the
// environment of a running process are observed on the next read.
type EnvSource struct{}

// NewEnvSource returns the live, environment-backed parameter source.
func NewEnvSource() EnvSource {
	return EnvSource{}
}

// RenewalInterval reads GAS_MAX_PRICE_RENEWAL_INTERVAL as whole seconds.
func (EnvSource) RenewalInterval() (time.Duration, error) {
	secs, err := envUint(EnvRenewalInterval)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

// ScaleFactor reads GAS_MAX_PRICE_SCALE_FACTOR as a float.
func (EnvSource) ScaleFactor() (float64, error) {
	return envFloat(EnvScaleFactor)
}

func envUint(name string) (uint64, error) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return 0, &MisconfigError{Name: name, Err: errNotSet}
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, &MisconfigError{Name: name, Err: err}
	}
	return v, nil
}

func envFloat(name string) (float64, error) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return 0, &MisconfigError{Name: name, Err: errNotSet}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &MisconfigError{Name: name, Err: err}
	}
	return v, nil
}

// Verify interface compliance at compile time.
var _ ParamSource = EnvSource{}
