// Package config loads and merges warndiff configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (WARNDIFF_FORMAT, WARNDIFF_FAIL_ON, WARNDIFF_IGNORE_CASE, NO_COLOR)
//  3. Config file (--config, $WARNDIFF_CONFIG, or $XDG_CONFIG_HOME/warndiff/config.yaml)
//  4. Built-in defaults
//
// Config files may be YAML, JSON or TOML, chosen by extension. Use [Load] to
// obtain a merged [Config], [Validate] to check it and [Compile] to turn it
// into the options consumed by the stage and extract packages.
package config
