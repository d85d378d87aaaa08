// Package provisioner is the entry point for provisioning a Bluetooth Mesh
// device over GATT.
//
// A Provisioner owns one dispatch loop. Every command is marshaled onto the
// loop and returns its synchronous result; transport callbacks and timers
// are marshaled onto the same loop, so the session manager and the
// provisioning state machine never need locks.
//
// Events are delivered to handlers registered with OnEvent on a separate
// delivery goroutine, in the order they were produced. Handlers may call
// commands. A handler that panics is reported as an EventError.
//
// Typical flow:
//
//	p, _ := provisioner.New(provisioner.DefaultConfig(), transport)
//	p.OnEvent(func(ev provisioner.Event) { ... })
//	p.StartProvisioning(ctx, addr)
//	p.SendInvite(ctx, 5)
//	// EventCapabilities
//	p.SendStart(ctx)
//	p.SendPublicKey(ctx, key)
//	// EventPublicKey, EventConfirmation after SendConfirmation, ...
package provisioner
