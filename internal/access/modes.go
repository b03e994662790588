// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package access

// ReadMode controls who may see a record.
type ReadMode string

// Valid read modes.
const (
	// ReadGlobal makes the record visible to anyone with world access.
	ReadGlobal ReadMode = "global"
	// ReadSelective restricts visibility to the record's read audiences.
	ReadSelective ReadMode = "selective"
	// ReadHidden hides the record from everyone except privileged viewers
	// and principals with write access.
	ReadHidden ReadMode = "hidden"
)

// IsValid returns true if the read mode is one of the known modes.
func (m ReadMode) IsValid() bool {
	return m == ReadGlobal || m == ReadSelective || m == ReadHidden
}

// WriteMode controls who may modify a record.
type WriteMode string

// Valid write modes.
const (
	// WriteGlobal allows anyone with world access to edit.
	WriteGlobal WriteMode = "global"
	// WriteSelective restricts editing to the record's write audiences.
	WriteSelective WriteMode = "selective"
	// WriteHidden allows no audience-based editing at all.
	WriteHidden WriteMode = "hidden"
	// WriteOwnerOnly restricts editing to the record creator (and
	// world owner / admin).
	WriteOwnerOnly WriteMode = "owner_only"
)

// IsValid returns true if the write mode is one of the known modes.
func (m WriteMode) IsValid() bool {
	return m == WriteGlobal || m == WriteSelective || m == WriteHidden || m == WriteOwnerOnly
}
