/*
Package ports defines the driven ports (interfaces) for axnav.

These interfaces decouple the core logic from external implementations, allowing
the inspector to work against a real accessibility binding, a fixture, or a
fake in tests.

# Key Interfaces

  - Provider: The UI inspection provider (an OS accessibility subsystem).
  - CPUSensor: A pollable CPU percentage for the current process.
  - SnapshotStore: Persists cached provider data served in degraded mode.
*/
package ports
