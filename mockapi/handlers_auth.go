package mockapi

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-hr-portal/hrapi"
	"github.com/jrsteele09/go-hr-portal/users"
)

func (s *Server) login(role users.RoleType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds hrapi.Credentials
		if !decodeBody(w, r, &creds) {
			return
		}

		account, err := s.accounts.GetByEmail(strings.TrimSpace(creds.Email))
		if err != nil || account.Role != role || !users.CheckPasswordHash(creds.Password, account.PasswordHash) {
			writeError(w, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password")
			return
		}
		if account.Blocked {
			writeError(w, http.StatusForbidden, CodeAccountBlocked, "This account has been blocked")
			return
		}

		token, _, err := s.tokens.issueSession(account.Principal)
		if err != nil {
			s.logger.Err(err).Msg("failed to issue session token")
			writeError(w, http.StatusInternalServerError, "", "Internal server error")
			return
		}

		account.LastLogin = s.now()
		if err := s.accounts.Upsert(account); err != nil {
			s.logger.Err(err).Str("user_id", account.ID).Msg("failed to record last login")
		}

		p := account.Principal
		writeData(w, http.StatusOK, hrapi.LoginResult{User: &p, Token: token})
	}
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, accountFrom(r).Principal)
}
