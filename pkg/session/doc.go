/*
Package session tracks the application roots an inspector has opened.

There is at most one live root per process id. Replacing it releases the
previous tree so stale nodes cannot be walked upward. Work that drives an
application (performing actions, reloading its root) is serialized per pid,
locally with a reference-counted mutex and, when a DistributedLocker is
configured, across replicas as well.
*/
package session
