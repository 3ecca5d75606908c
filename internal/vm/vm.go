// Package vm provides the single-VM lifecycle: it keeps the persistent
// bundle (EFI variable store, sparse main disk, machine identifier), builds
// the hypervisor configuration with the installer ahead of the main disk,
// and drives start and guest shutdown through a hypervisor.Driver.
package vm
