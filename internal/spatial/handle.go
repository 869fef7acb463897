package spatial

// Handle is a (index, generation) reference into the Registry. A handle is
// valid only while the slot it names has not been recycled since issuance.
type Handle struct {
	Index      uint32
	Generation uint32
}
