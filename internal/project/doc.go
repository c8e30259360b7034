// Package project implements registry operations over the projects map of
// the configuration document: add, remove, tag updates, access bookkeeping,
// and queries.
//
// There is no long-lived in-memory state. Every mutating operation reloads
// the latest on-disk document, applies its change, revalidates, and saves
// through the atomic writer, minimizing the lost-update window between
// concurrent invocations without attempting global linearizability.
package project
