// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Package access implements per-request read/write decisions for shared
// world records.
//
// A record carries a read mode, a write mode, and selective-mode audience
// lists (campaigns, users, characters). A Context carries the facts about
// the requesting principal needed to evaluate those fields: admin/owner
// flags, campaign memberships, owned characters, and the active campaign.
// CanRead and CanWrite evaluate a single record against a context; Compile
// derives a storage-level Filter that selects exactly the records CanRead
// would accept, without fetching ineligible rows.
//
// Contexts are resolved fresh per request by Resolver and never cached
// across requests.
package access
