// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for aria and aria-relay.
//
// Configuration is TOML with sensible defaults and ARIA_* environment
// variable overrides, loaded from ~/.aria/config.toml. Precedence, lowest to
// highest: built-in defaults, config file, environment.
package config
