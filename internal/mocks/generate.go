// Package mocks provides gomock implementations of the ports used by the
// authorizer and directory adapters.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	dir := mocks.NewMockDirectory(ctrl)
//	dir.EXPECT().LookupRole(gomock.Any(), "player-1").Return(domainauth.RoleUser, nil)
package mocks

// Generate mock for Directory interface from internal/ports package.
// This creates MockDirectory with methods for all Directory interface methods:
// LookupRole
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=directory_mock.go github.com/target/ctf-console/internal/ports Directory

// Generate mock for RoleCache interface from internal/ports package.
// This creates MockRoleCache with methods for all RoleCache interface methods:
// Get, Set
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=role_cache_mock.go github.com/target/ctf-console/internal/ports RoleCache
