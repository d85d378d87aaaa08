// Package persistence keeps the provisioner's record of the nodes it has
// provisioned, so a later run can tell which devices are already part of
// the network.
//
// State is stored as a single JSON file. Key material is not stored.
package persistence
