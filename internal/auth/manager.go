// internal/auth/manager.go
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/engagecrm/engage-backend/internal/apperrors"
	"github.com/engagecrm/engage-backend/internal/config"
	"github.com/engagecrm/engage-backend/internal/model"
	"github.com/engagecrm/engage-backend/internal/repository"
)

const stateCookie = "oauth_state"

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type googleUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Manager runs the Google OAuth handshake and converts it into a signed
// bearer token for the frontend.
type Manager struct {
	oauthConfig *oauth2.Config
	userRepo    repository.UserRepositoryInterface
	jwtSecret   []byte
	frontendURL string
}

func NewManager(cfg *config.Config, userRepo repository.UserRepositoryInterface) *Manager {
	return &Manager{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.OAuthCallbackURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userRepo:    userRepo,
		jwtSecret:   []byte(cfg.JWTSecret),
		frontendURL: cfg.FrontendURL,
	}
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// HandleLogin redirects the browser to Google's consent screen.
func (m *Manager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		http.Error(w, "failed to generate state", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, m.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusTemporaryRedirect)
}

// HandleCallback finishes the handshake: verify state, exchange the code,
// fetch the Google profile, lazily create the user, and hand the frontend a
// bearer token via redirect.
func (m *Manager) HandleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || r.URL.Query().Get("state") != cookie.Value {
		m.redirectError(w, r, "invalid_state")
		return
	}

	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		m.redirectError(w, r, errMsg)
		return
	}

	token, err := m.oauthConfig.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.WithError(err).Warn("oauth code exchange failed")
		m.redirectError(w, r, "exchange_failed")
		return
	}

	info, err := m.fetchUserInfo(token.AccessToken)
	if err != nil {
		log.WithError(err).Warn("google userinfo fetch failed")
		m.redirectError(w, r, "userinfo_failed")
		return
	}

	user, err := m.lookupOrCreate(info)
	if err != nil {
		log.WithError(err).Error("user lookup failed")
		m.redirectError(w, r, "login_failed")
		return
	}

	jwtToken, err := SignToken(m.jwtSecret, user.ID)
	if err != nil {
		log.WithError(err).Error("token signing failed")
		m.redirectError(w, r, "login_failed")
		return
	}

	log.WithField("email", user.Email).Info("user logged in")
	http.Redirect(w, r, m.frontendURL+"/login?token="+jwtToken, http.StatusTemporaryRedirect)
}

func (m *Manager) redirectError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, m.frontendURL+"/login?error="+code, http.StatusTemporaryRedirect)
}

func (m *Manager) fetchUserInfo(accessToken string) (*googleUserInfo, error) {
	resp, err := http.Get(userInfoURL + "?access_token=" + accessToken)
	if err != nil {
		return nil, apperrors.NewExternalService("google", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewExternalService("google", fmt.Errorf("userinfo status %d", resp.StatusCode))
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, apperrors.NewExternalService("google", err)
	}
	return &info, nil
}

func (m *Manager) lookupOrCreate(info *googleUserInfo) (*model.User, error) {
	user, err := m.userRepo.GetByGoogleID(info.ID)
	if err == nil {
		return user, nil
	}
	var ne *apperrors.NotFoundError
	if !errors.As(err, &ne) {
		return nil, err
	}

	user = &model.User{GoogleID: info.ID, Email: info.Email, Name: info.Name}
	if err := m.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}
