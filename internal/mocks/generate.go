// Package mocks provides gomock implementations of the console's ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the port interfaces.
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	gw := mocks.NewMockAuthGateway(ctrl)
//	gw.EXPECT().FetchCurrentUser(gomock.Any(), domainauth.Token("t")).Return(user, nil)
//
// Hand-written fakes with in-memory state live in internal/mocks/auth.
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ports_mock.go github.com/socialadify/adify-console/internal/ports AuthGateway,KeyValueStore
