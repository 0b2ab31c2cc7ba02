// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry provides usage tracking for the aria relay.
//
// Stats holds cheap in-memory counters served by the /stats endpoint.
// UsageStore persists per-request usage rows to SQLite so operators can
// answer "how much did we stream last week" after a restart.
package telemetry
