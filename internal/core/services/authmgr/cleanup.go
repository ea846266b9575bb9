package authmgr

import "github.com/sonic-net/sonic-pacd/internal/core/domain"

// authorize implements fsm.Deps.Authorize: the client-add dataplane
// fan-out run on entry to Authenticated (spec.md section 4.10). Each step
// marks the attr_create_mask bit it installs so a partial failure can be
// unwound in reverse order by cleanupAttrs.
func (a *AuthMgr) authorize(port *domain.Port, lp *domain.LogicalPort) {
	client := &lp.Client
	prevPVID := port.PVID

	vlan := a.resolveVlan(port, lp)
	client.VlanID = vlan

	// Step 1: install the static FDB entry.
	if res := a.deps.Platform.ClientAdd(port.Ifname, client.MAC, vlan); !res.OK() {
		a.cleanupAttrs(port, lp, client.AttrCreateMask, prevPVID)
		return
	}
	client.AttrCreateMask |= domain.AttrStaticFdb

	// Step 2: lift any dataplane block left from the authenticating phase,
	// if the VLAN it was installed against differs from the one just
	// assigned (spec.md section 4.10 step 2).
	if client.DataBlocked && client.BlockVlanID != vlan {
		if res := a.deps.Platform.ClientUnblock(port.Ifname, client.MAC, client.BlockVlanID); res.OK() {
			client.DataBlocked = false
			client.AttrCreateMask &^= domain.AttrBlockFdb
		}
	}

	// A zero/invalid vlan means no VLAN assignment applies (neither RADIUS
	// nor a configured default was found, and the port carries no PVID
	// yet): steps 3 and 4 only make sense against a real VLAN ID.
	if !domain.ValidVlanID(vlan) {
		return
	}

	// Step 3: ensure the port carries VLAN membership for vlan.
	if a.deps.VlanCache == nil || !a.deps.VlanCache.IsPortMember(vlan, port.Ifname) {
		if a.deps.VlanCache != nil {
			if res := a.deps.VlanCache.PortVlanAdd(vlan, port.Ifname, domain.Untagged); !res.OK() {
				a.cleanupAttrs(port, lp, client.AttrCreateMask, prevPVID)
				return
			}
		}
		if res := a.deps.Platform.VlanMemberAdd(vlan, port.Ifname, domain.Untagged); !res.OK() {
			a.cleanupAttrs(port, lp, client.AttrCreateMask, prevPVID)
			return
		}
	}

	// Step 4: the first Authorized client on the port also sets the PVID.
	if port.AuthCount == 0 && vlan != prevPVID {
		if res := a.deps.Platform.PortPVIDSet(port.Ifname, vlan); res.OK() {
			port.PVID = vlan
			client.AttrCreateMask |= domain.AttrPvid
		}
	}
}

// resolveVlan picks the VLAN a newly Authorized client installs into:
// a RADIUS-assigned VLAN (dynamically creating it if the switch doesn't
// know it yet), else the port's configured default VLAN, else the port's
// current PVID (spec.md section 4.10).
func (a *AuthMgr) resolveVlan(port *domain.Port, lp *domain.LogicalPort) int {
	client := &lp.Client
	if client.VlanType == domain.VlanTypeRadius && domain.ValidVlanID(client.VlanID) {
		vlan := client.VlanID
		if a.deps.VlanCache != nil && a.deps.VlanCache.Valid(vlan) != domain.VlanPresent {
			_ = a.deps.VlanCache.VlanAdd(vlan)
			_ = a.deps.Platform.VlanAdd(vlan)
		}
		return vlan
	}
	if a.deps.VlanCache != nil {
		if vlan, ok := a.deps.VlanCache.PortDefaultVlan(port.Ifname); ok {
			return vlan
		}
	}
	return port.PVID
}

// cleanupAttrs walks mask highest-bit-first, undoing each dataplane
// installation step authorize completed before the failure (spec.md
// section 9: "cleanup dispatch table keyed by attr_create_mask bits... in
// reverse order"). prevPVID is the PVID to restore if AttrPvid was set.
func (a *AuthMgr) cleanupAttrs(port *domain.Port, lp *domain.LogicalPort, mask domain.AttrCreateMask, prevPVID int) {
	client := &lp.Client

	if mask.Has(domain.AttrPvid) {
		_ = a.deps.Platform.PortPVIDSet(port.Ifname, prevPVID)
		port.PVID = prevPVID
		client.AttrCreateMask &^= domain.AttrPvid
	}
	if mask.Has(domain.AttrBlockFdb) {
		_ = a.deps.Platform.ClientBlock(port.Ifname, client.MAC, client.BlockVlanID)
		client.DataBlocked = true
		client.AttrCreateMask |= domain.AttrBlockFdb
	}
	if mask.Has(domain.AttrStaticFdb) {
		_ = a.deps.Platform.ClientRemove(port.Ifname, client.MAC, client.VlanID)
		client.AttrCreateMask &^= domain.AttrStaticFdb
	}
}

// clientInfoCleanupCheck mirrors authmgrClientInfoCleanupCheck: it
// returns Success precisely when NO cleanup is needed, i.e. the client is
// already Authorized against the same VLAN it would be re-installed
// against. Every caller must read the result as "no-op is correct", not
// as "cleanup succeeded" — the inversion is deliberate and preserved
// exactly as the original behaves (spec.md section 9).
func clientInfoCleanupCheck(lp *domain.LogicalPort, newVlan int) domain.Result {
	if lp.Client.LogicalPortStatus == domain.StatusAuthorized && lp.Client.VlanID == newVlan {
		return domain.Success
	}
	return domain.Failure
}

// validateVlanPortDeletion resolves Open Question #1 (spec.md section 9):
// it backs up lp's VlanID, clears it, then checks whether any other
// logical port on the same physical port is still an Authorized member of
// vlan. The backup is restored here only on the failure path (a sibling
// still references vlan); on success lp's VlanID is left cleared, and
// dropPortClients puts it back before tearing lp down.
func (a *AuthMgr) validateVlanPortDeletion(port *domain.Port, lp *domain.LogicalPort, vlan int) domain.Result {
	backup := lp.Client.VlanID
	lp.Client.VlanID = 0

	cursor, res := a.deps.Registry.FirstPort(port.PhysPort)
	for res.OK() {
		if cursor != lp.Key {
			if sibling, gres := a.deps.Registry.Get(cursor); gres.OK() {
				if sibling.Client.LogicalPortStatus == domain.StatusAuthorized && sibling.Client.VlanID == vlan {
					lp.Client.VlanID = backup
					return domain.Failure
				}
			}
		}
		cursor, res = a.deps.Registry.NextPort(cursor)
	}
	// Iteration exhausted (NotExist) with no Authorized sibling found:
	// safe to proceed with the clear.
	return domain.Success
}
