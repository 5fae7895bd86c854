package session

// Persisted store keys. All of them are cleared together on sign-out and on
// stored-session corruption.
const (
	KeyToken                  = "token"
	KeyUser                   = "user"
	KeyGoogleSignupInProgress = "googleSignupInProgress"
	KeyGoogleUserData         = "googleUserData"
	KeyGoogleAccessToken      = "googleAccessToken"
	KeyGoogleAuthAction       = "googleAuthAction"
)

// AllKeys lists every persisted auth-related key.
var AllKeys = []string{
	KeyToken,
	KeyUser,
	KeyGoogleSignupInProgress,
	KeyGoogleUserData,
	KeyGoogleAccessToken,
	KeyGoogleAuthAction,
}

// Store is the persisted key-value store backing the session.
//
// Implementations must tolerate missing keys (ok=false) and treat Delete of an
// absent key as a no-op.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(keys ...string) error
}
