package api

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/mycalender/calendar-backend/internal/model"
)

// singleUserID identifies the calendar's only account. There is no user
// table; the password check is the whole identity model.
const singleUserID = 1

func (a *Api) signInHandler(w http.ResponseWriter, r *http.Request) {
	req := &struct {
		Password string `json:"password"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(a.password)) != 1 {
		a.unauthorizedResponse(w, r, errors.New("wrong password"))
		return
	}

	tokens, err := a.generateTokens(r.Context(), singleUserID)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, tokens, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	input := &struct {
		RefreshToken string `json:"refresh_token"`
	}{}

	if err := a.readJSON(w, r, input); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	id, err := a.refreshTokens.Get(r.Context(), input.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNoRecord):
			a.unauthorizedResponse(w, r, errors.New("no such session"))
		default:
			a.serverErrorResponse(w, r, err)
		}
		return
	}

	accessToken, err := a.jwts.CreateToken(id)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	newRefreshToken := ""
	for {
		newRefreshToken, err = a.generateRandomString(a.sessionTokenLength)
		if err != nil {
			a.serverErrorResponse(w, r, err)
			return
		}

		if err := a.refreshTokens.Refresh(r.Context(), input.RefreshToken, newRefreshToken); err != nil {
			if errors.Is(err, model.ErrAlreadyExists) {
				continue
			}
			a.serverErrorResponse(w, r, err)
			return
		}

		break
	}

	response := &tokens{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}

	if err := a.writeJSON(w, http.StatusOK, response, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) logoutHandler(w http.ResponseWriter, r *http.Request) {
	input := &struct {
		RefreshToken string `json:"refresh_token"`
	}{}

	if err := a.readJSON(w, r, input); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	if err := a.refreshTokens.Delete(r.Context(), input.RefreshToken); err != nil {
		switch {
		case errors.Is(err, model.ErrNoRecord):
			a.unauthorizedResponse(w, r, errors.New("no such session"))
		default:
			a.serverErrorResponse(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}
