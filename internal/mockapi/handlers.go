package mockapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// AccessTokenCookie carries the session token, as the real API does.
const AccessTokenCookie = "access_token"

// sessionMaxAge is the cookie lifetime in seconds.
const sessionMaxAge = int(AccessTokenTTL / time.Second)

// AuthParams reads the session token from the bearer header or the cookie.
type AuthParams struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	AccessToken   string `cookie:"access_token" doc:"Session cookie"`
}

// Token returns the bearer token, falling back to the cookie.
func (a AuthParams) Token() string {
	if token, ok := strings.CutPrefix(a.Authorization, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return a.AccessToken
}

// HealthOutput is the actuator health body.
type HealthOutput struct {
	Body struct {
		Status string `json:"status" example:"UP"`
	}
}

// RegisterInput is the register request.
type RegisterInput struct {
	Body struct {
		Firstname string `json:"firstname" minLength:"1"`
		Lastname  string `json:"lastname" minLength:"1"`
		Email     string `json:"email" format:"email"`
		Password  string `json:"password" minLength:"6"`
	}
}

// LoginInput is the login request.
type LoginInput struct {
	Body struct {
		Email    string `json:"email" format:"email"`
		Password string `json:"password" minLength:"1"`
	}
}

// AuthBody is returned by register and login. Token is omitted in
// cookie-only mode.
type AuthBody struct {
	Token     string `json:"token,omitempty"`
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// AuthOutput carries the auth body and the session cookie.
type AuthOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      AuthBody
}

// LogoutInput identifies the session to revoke.
type LogoutInput struct {
	AuthParams
}

// LogoutOutput clears the session cookie.
type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
}

// CurrentUserInput is the users/me request.
type CurrentUserInput struct {
	AuthParams
}

// UserOutput is the users/me body.
type UserOutput struct {
	Body User
}

// ListInput is a paged list request.
type ListInput struct {
	AuthParams
	Page int `query:"page" default:"0" minimum:"0"`
	Size int `query:"size" default:"10" minimum:"1" maximum:"100"`
}

// PageOutput is a paged list body.
type PageOutput struct {
	Body Page
}

// ArrayInput is an unpaged list request.
type ArrayInput struct {
	AuthParams
}

// ArrayOutput is an unpaged list body.
type ArrayOutput struct {
	Body []Record
}

// DashboardInput is the stats dashboard request.
type DashboardInput struct {
	AuthParams
}

// DashboardOutput is the stats dashboard body.
type DashboardOutput struct {
	Body DashboardStats
}

type pagedRoute struct {
	id         string
	path       string
	collection string
}

var pagedRoutes = []pagedRoute{
	{"listPatients", "/api/patients", CollectionPatients},
	{"listConsultations", "/api/consultations", CollectionConsultations},
	{"listPrescriptions", "/api/prescriptions", CollectionPrescriptions},
	{"listHealthcareProfessionals", "/api/healthcareprofessionals", CollectionProfessionals},
	{"listHealthcareProfessionalsHyphenated", "/api/healthcare-professionals", CollectionProfessionals},
	{"listMedications", "/api/medications", CollectionMedications},
	{"listCie10", "/api/cie10", CollectionCie10},
}

// Handler serves the mock SICC endpoints from a Store.
type Handler struct {
	store      *Store
	cookieOnly bool
}

// NewHandler creates a handler. With cookieOnly the token is only delivered
// through the access_token cookie.
func NewHandler(store *Store, cookieOnly bool) *Handler {
	return &Handler{store: store, cookieOnly: cookieOnly}
}

// Register registers every mock operation with the API.
func (h *Handler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getHealth",
		Method:      http.MethodGet,
		Path:        "/actuator/health",
		Summary:     "Health check",
		Tags:        []string{"Actuator"},
	}, h.GetHealth)

	huma.Register(api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/auth/register",
		Summary:     "Register a user",
		Tags:        []string{"Auth"},
	}, h.PostRegister)

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/auth/login",
		Summary:     "Log in",
		Tags:        []string{"Auth"},
	}, h.PostLogin)

	huma.Register(api, huma.Operation{
		OperationID:   "logout",
		Method:        http.MethodPost,
		Path:          "/api/auth/logout",
		Summary:       "Log out",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusNoContent,
	}, h.PostLogout)

	huma.Register(api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/users/me",
		Summary:     "Current user",
		Tags:        []string{"Users"},
	}, h.GetCurrentUser)

	for _, route := range pagedRoutes {
		collection := route.collection
		huma.Register(api, huma.Operation{
			OperationID: route.id,
			Method:      http.MethodGet,
			Path:        route.path,
			Summary:     "List " + collection,
			Tags:        []string{"Records"},
		}, func(ctx context.Context, input *ListInput) (*PageOutput, error) {
			return h.listPage(input, collection)
		})
	}

	huma.Register(api, huma.Operation{
		OperationID: "listPharmaceuticalForms",
		Method:      http.MethodGet,
		Path:        "/api/pharmaceutical-forms",
		Summary:     "List pharmaceutical forms",
		Tags:        []string{"Records"},
	}, h.GetPharmaceuticalForms)

	huma.Register(api, huma.Operation{
		OperationID: "getDashboardStats",
		Method:      http.MethodGet,
		Path:        "/api/stats/dashboard",
		Summary:     "Dashboard statistics",
		Tags:        []string{"Stats"},
	}, h.GetDashboard)
}

// GetHealth always reports UP.
func (h *Handler) GetHealth(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	out := &HealthOutput{}
	out.Body.Status = "UP"
	return out, nil
}

// PostRegister creates an account and opens a session for it.
func (h *Handler) PostRegister(_ context.Context, input *RegisterInput) (*AuthOutput, error) {
	user, err := h.store.Register(input.Body.Firstname, input.Body.Lastname, input.Body.Email, input.Body.Password)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, huma.Error409Conflict("email already registered")
		}
		return nil, huma.Error500InternalServerError("failed to register user", err)
	}
	return h.session(user)
}

// PostLogin opens a session for valid credentials.
func (h *Handler) PostLogin(_ context.Context, input *LoginInput) (*AuthOutput, error) {
	user, err := h.store.Authenticate(input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, huma.Error401Unauthorized("bad credentials")
	}
	return h.session(user)
}

// PostLogout revokes the presented session, if any, and clears the cookie.
func (h *Handler) PostLogout(_ context.Context, input *LogoutInput) (*LogoutOutput, error) {
	if token := input.Token(); token != "" {
		h.store.Revoke(token)
	}
	return &LogoutOutput{SetCookie: http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}}, nil
}

// GetCurrentUser returns the session owner.
func (h *Handler) GetCurrentUser(_ context.Context, input *CurrentUserInput) (*UserOutput, error) {
	user, err := h.authenticate(input.AuthParams)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}

// GetPharmaceuticalForms returns all forms as a plain array.
func (h *Handler) GetPharmaceuticalForms(_ context.Context, input *ArrayInput) (*ArrayOutput, error) {
	if _, err := h.authenticate(input.AuthParams); err != nil {
		return nil, err
	}
	rows, _ := h.store.All(CollectionForms)
	return &ArrayOutput{Body: rows}, nil
}

// GetDashboard returns aggregate counts.
func (h *Handler) GetDashboard(_ context.Context, input *DashboardInput) (*DashboardOutput, error) {
	if _, err := h.authenticate(input.AuthParams); err != nil {
		return nil, err
	}
	return &DashboardOutput{Body: h.store.Dashboard()}, nil
}

func (h *Handler) listPage(input *ListInput, collection string) (*PageOutput, error) {
	if _, err := h.authenticate(input.AuthParams); err != nil {
		return nil, err
	}
	page, ok := h.store.Page(collection, input.Page, input.Size)
	if !ok {
		return nil, huma.Error404NotFound("unknown collection " + collection)
	}
	return &PageOutput{Body: page}, nil
}

func (h *Handler) authenticate(params AuthParams) (User, error) {
	token := params.Token()
	if token == "" {
		return User{}, huma.Error401Unauthorized("full authentication is required to access this resource")
	}
	user, err := h.store.Resolve(token)
	if err != nil {
		return User{}, huma.Error401Unauthorized("invalid or expired token")
	}
	return user, nil
}

func (h *Handler) session(user User) (*AuthOutput, error) {
	token, err := h.store.IssueToken(user.Email)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to issue token", err)
	}

	out := &AuthOutput{
		SetCookie: http.Cookie{
			Name:     AccessTokenCookie,
			Value:    token,
			Path:     "/",
			MaxAge:   sessionMaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		Body: AuthBody{
			Email:     user.Email,
			Firstname: user.Firstname,
			Lastname:  user.Lastname,
		},
	}
	if !h.cookieOnly {
		out.Body.Token = token
	}
	return out, nil
}
