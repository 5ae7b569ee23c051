package auth

// AccessClaims is the payload of a bearer token accepted by the API and
// stream surfaces.
type AccessClaims struct {
	Sub string `json:"sub"` // subject id
	Iat int64  `json:"iat"` // created at
	Exp int64  `json:"exp"` // expires at
}
