// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package archive

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tomtom215/auditrail/internal/occurrence"
)

// Sentinel usernames written when the user can no longer be identified.
const (
	// DeletedUser marks a user id that no longer resolves.
	DeletedUser = "Deleted"
	// UnknownUser marks an occurrence with neither username nor user id.
	UnknownUser = "Unknown User"
)

// User is an account in the live user directory.
type User struct {
	ID       int64
	Username string
}

// UserDirectory looks up accounts of the host application.
type UserDirectory interface {
	UserByID(ctx context.Context, id int64) (User, bool, error)
	UserByName(ctx context.Context, username string) (User, bool, error)
}

// StaticDirectory is an in-memory UserDirectory.
type StaticDirectory struct {
	mu     sync.RWMutex
	byID   map[int64]User
	byName map[string]User
}

// NewStaticDirectory creates a directory holding users.
func NewStaticDirectory(users ...User) *StaticDirectory {
	d := &StaticDirectory{byID: map[int64]User{}, byName: map[string]User{}}
	for _, u := range users {
		d.Put(u)
	}
	return d
}

// Put adds or replaces a user.
func (d *StaticDirectory) Put(u User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[u.ID] = u
	d.byName[strings.ToLower(u.Username)] = u
}

// Delete removes the user with id.
func (d *StaticDirectory) Delete(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.byID[id]; ok {
		delete(d.byName, strings.ToLower(u.Username))
		delete(d.byID, id)
	}
}

// UserByID implements UserDirectory.
func (d *StaticDirectory) UserByID(_ context.Context, id int64) (User, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byID[id]
	return u, ok, nil
}

// UserByName implements UserDirectory. Names match case-insensitively.
func (d *StaticDirectory) UserByName(_ context.Context, username string) (User, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byName[strings.ToLower(username)]
	return u, ok, nil
}

func isSentinel(username string) bool {
	return username == DeletedUser || username == UnknownUser
}

// reconcileIdentity fills in the username or user id of an identity
// occurrence. It must run before the source row is deleted.
func reconcileIdentity(ctx context.Context, dir UserDirectory, o *occurrence.Occurrence) error {
	switch {
	case o.Username == "" && o.UserID == 0:
		o.Username = UnknownUser

	case o.Username == "" && o.UserID != 0:
		if dir == nil {
			return nil
		}
		u, ok, err := dir.UserByID(ctx, o.UserID)
		if err != nil {
			return fmt.Errorf("failed to look up user %d: %w", o.UserID, err)
		}
		if ok {
			o.Username = u.Username
		} else {
			o.Username = DeletedUser
		}

	case o.UserID == 0 && !isSentinel(o.Username):
		if dir == nil {
			return nil
		}
		u, ok, err := dir.UserByName(ctx, o.Username)
		if err != nil {
			return fmt.Errorf("failed to look up user %q: %w", o.Username, err)
		}
		if ok {
			o.UserID = u.ID
		}
	}
	return nil
}
