// Package version carries the patcher's release identity, used in
// provenance comments, recipe compatibility checks, and --version output.
package version

// Version is the running engine version recipes validate their
// patcher_version requirement against.
const Version = "2.0.0"

// Author is printed by --version.
const Author = "Tilman Griesel"

// Changelog maps releases to their headline change, newest first in sorted
// order.
var Changelog = map[string]string{
	"2.0.0": "Complete rewrite with simplified logic - proper user-defined entries grouping and auto theme support",
	"1.6.1": "Fixed indentation and missing comment headers for user defined entries in auto themes",
	"1.6.0": "Major robustness improvements with auto-detection, rollback, and validation",
	"1.5.0": "Fixed comment handling to ignore commented tokens",
	"1.4.2": "Allow none value",
	"1.4.1": "Improved logging and arguments",
	"1.4.0": "Added support for card-mod tokens",
	"1.3.0": "Enhanced color token handling with rgb()/rgba() formats",
	"1.2.0": "Added support for custom token creation",
	"1.1.0": "Added support for multiple themes and configurable paths",
	"1.0.0": "Initial release with RGB token support",
}
