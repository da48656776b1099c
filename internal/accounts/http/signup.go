package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tukcommunity/backend/internal/accounts/service"
	"github.com/tukcommunity/backend/pkg/authsdk"
	"github.com/tukcommunity/backend/pkg/httpx"
	"github.com/tukcommunity/backend/pkg/slogx"
)

const signupMessage = "회원가입이 완료되었습니다."

type SignupHandler struct {
	SignupService *service.SignupService
}

// signupBody mirrors authsdk.SignupRequest but lets student_num arrive as
// either a JSON number or a string.
type signupBody struct {
	Email      string      `json:"email"`
	Password   string      `json:"password"`
	StudentNum numericText `json:"student_num"`
	Department string      `json:"department"`
	Nickname   *string     `json:"nickname"`
}

// numericText keeps the raw text of a JSON number or string for validation
// further down.
type numericText string

func (n *numericText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*n = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = numericText(s)
	default:
		*n = numericText(b)
	}
	return nil
}

// ServeHTTP godoc
//
//	@Summary		Register a new account
//	@Description	Creates a user with the default role. All invalid fields are reported at once.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignupRequest		true	"Signup payload"
//	@Success		201		{object}	authsdk.SignupResponse		"Created user"
//	@Failure		400		{object}	map[string][]string			"Field errors"
//	@Failure		500		{object}	authsdk.APIError			"Internal server error"
//	@Router			/api/accounts/signup/ [post].
func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var body signupBody
	if err := httpx.DecodeJSON(r, &body); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
		log.Debug("invalid signup body", "error", err)
		authsdk.ErrParse.WriteError(w)
		return
	}

	u, err := h.SignupService.Signup(ctx, service.SignupInput{
		Email:      body.Email,
		Password:   body.Password,
		StudentNum: string(body.StudentNum),
		Department: body.Department,
		Nickname:   body.Nickname,
	})
	if err != nil {
		var verrs service.ValidationError
		if errors.As(err, &verrs) {
			authsdk.ValidationErrors(verrs).WriteError(w)
			return
		}
		log.Error("signup failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.SignupResponse{
		Message: signupMessage,
		User: authsdk.SignupUser{
			Email:      u.Email,
			StudentNum: u.StudentNum,
			Nickname:   u.NicknameOrEmpty(),
		},
	})
}
