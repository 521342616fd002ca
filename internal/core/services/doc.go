// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Every service works on the connection-scoped Stores of one open store;
// callers open the store, build the services, run and close it again.
package services
