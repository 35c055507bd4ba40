package journal

// Chain threads the head through consecutive Append and Verify calls.
type Chain struct {
	head   string
	cipher Cipher
}

func NewChain(head string, c Cipher) *Chain {
	return &Chain{head: head, cipher: c}
}

// Head is the UID of the last entry appended or verified.
func (ch *Chain) Head() string {
	return ch.head
}

// Append builds the next entry and advances the head.
func (ch *Chain) Append(se SyncEntry) (Entry, error) {
	e, err := Append(ch.head, se, ch.cipher)
	if err != nil {
		return Entry{}, err
	}
	ch.head = e.UID
	return e, nil
}

// Next verifies a single entry against the head and advances it.
func (ch *Chain) Next(e Entry) (SyncEntry, error) {
	se, err := VerifyAndDecrypt(e, ch.head, ch.cipher)
	if err != nil {
		return SyncEntry{}, err
	}
	ch.head = e.UID
	return se, nil
}

// Verify walks entries in order. On failure the head stays at the last good
// entry and the records decoded so far are returned with the error.
func (ch *Chain) Verify(entries []Entry) ([]SyncEntry, error) {
	out := make([]SyncEntry, 0, len(entries))
	for _, e := range entries {
		se, err := ch.Next(e)
		if err != nil {
			return out, err
		}
		out = append(out, se)
	}
	return out, nil
}
