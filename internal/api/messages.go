package api

// Entry is a chain link on the wire.
type Entry struct {
	UID     string `cbor:"uid"`
	Content []byte `cbor:"content"`
	Tag     []byte `cbor:"tag"`
}

// Journal is a collection as seen by one member. WrappedKey is set only when
// the caller is not the owner.
type Journal struct {
	UID        string `cbor:"uid"`
	Version    int32  `cbor:"version"`
	Owner      string `cbor:"owner"`
	Info       Entry  `cbor:"info"`
	WrappedKey []byte `cbor:"wrapped_key,omitempty"`
	Head       string `cbor:"head,omitempty"`
}

type UserInfo struct {
	Owner     string `cbor:"owner"`
	Version   int32  `cbor:"version"`
	PublicKey string `cbor:"public_key"`
	Content   []byte `cbor:"content,omitempty"`
	Tag       []byte `cbor:"tag,omitempty"`
}

type RegisterRequest struct {
	Username string `cbor:"username"`
	Salt     []byte `cbor:"salt"`
	Verifier []byte `cbor:"verifier"`
}

type RegisterResponse struct {
	UserID string `cbor:"user_id"`
}

type GetSaltRequest struct {
	Username string `cbor:"username"`
}

type GetSaltResponse struct {
	Salt []byte `cbor:"salt"`
}

type LoginRequest struct {
	Username          string `cbor:"username"`
	VerifierCandidate []byte `cbor:"verifier_candidate"`
}

type LoginResponse struct {
	AccessToken  string `cbor:"access_token"`
	RefreshToken string `cbor:"refresh_token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `cbor:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `cbor:"access_token"`
	RefreshToken string `cbor:"refresh_token"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `cbor:"status"`
}

type ListJournalsRequest struct{}

type ListJournalsResponse struct {
	Journals []Journal `cbor:"journals"`
}

type FetchJournalRequest struct {
	UID string `cbor:"uid"`
}

type FetchJournalResponse struct {
	Journal Journal `cbor:"journal"`
}

type CreateJournalRequest struct {
	Journal Journal `cbor:"journal"`
}

type CreateJournalResponse struct{}

type UpdateJournalRequest struct {
	UID  string `cbor:"uid"`
	Info Entry  `cbor:"info"`
}

type UpdateJournalResponse struct{}

type DeleteJournalRequest struct {
	UID string `cbor:"uid"`
}

type DeleteJournalResponse struct{}

// FetchEntriesRequest asks for entries strictly after AfterUID, oldest
// first. An empty AfterUID starts at the beginning of the journal.
type FetchEntriesRequest struct {
	JournalUID string `cbor:"journal_uid"`
	AfterUID   string `cbor:"after_uid,omitempty"`
	Limit      int32  `cbor:"limit"`
}

type FetchEntriesResponse struct {
	Entries []Entry `cbor:"entries"`
}

// PushEntriesRequest appends Entries if the journal's head is still
// ExpectedHead; otherwise the call fails with codes.Aborted.
type PushEntriesRequest struct {
	JournalUID   string  `cbor:"journal_uid"`
	ExpectedHead string  `cbor:"expected_head,omitempty"`
	Entries      []Entry `cbor:"entries"`
}

type PushEntriesResponse struct {
	Head string `cbor:"head"`
}

type GetUserInfoRequest struct {
	Username string `cbor:"username"`
}

type GetUserInfoResponse struct {
	UserInfo UserInfo `cbor:"user_info"`
}

type PutUserInfoRequest struct {
	UserInfo UserInfo `cbor:"user_info"`
}

type PutUserInfoResponse struct{}

type AddMemberRequest struct {
	JournalUID string `cbor:"journal_uid"`
	Username   string `cbor:"username"`
	WrappedKey []byte `cbor:"wrapped_key"`
}

type AddMemberResponse struct{}
