package valueobject

import "strings"

// Environment tags which store environment produced a verification result.
// It is a result annotation attached during validation, never client input.
type Environment string

const (
	EnvironmentProduction Environment = "Production"
	EnvironmentTest       Environment = "Test"
	EnvironmentUnknown    Environment = "Unknown"
)

// EnvironmentFromApple maps the environment string Apple returns
// ("Production" or "Sandbox") into the normalized tag.
func EnvironmentFromApple(env string) Environment {
	if strings.EqualFold(env, "Production") {
		return EnvironmentProduction
	}
	return EnvironmentTest
}

// String returns the string representation of the environment
func (e Environment) String() string {
	return string(e)
}
