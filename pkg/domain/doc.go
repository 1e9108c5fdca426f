/*
Package domain contains the shared vocabulary of axnav.

It defines what the inspection provider hands back (element and application
descriptions), the closed tagged value used for attributes, cached snapshots
served in degraded mode, and the error taxonomy every layer reports through.
This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - ElementInfo: A provider's description of one UI object (role, title, hints).
  - AppInfo: A running application that can be selected as a tree root.
  - Value: A tagged attribute value (string, number, bool, node reference, unknown).
  - Snapshot: Cached provider data for one node, used when live calls are refused.
  - Error: A categorized failure carrying a recovery hint.
*/
package domain
