// Package method decodes, authenticates and dispatches method calls: the
// state machine between the raw request envelope and the business handlers.
package method

import (
	"context"
	"strconv"

	"github.com/scorelayer/scoring/internal/auth"
	"github.com/scorelayer/scoring/internal/errors"
	"github.com/scorelayer/scoring/internal/logging"
	"github.com/scorelayer/scoring/internal/metrics"
	"github.com/scorelayer/scoring/internal/scoring"
	"github.com/scorelayer/scoring/internal/validate"
)

// Method names routed by the dispatcher.
const (
	MethodOnlineScore      = "online_score"
	MethodClientsInterests = "clients_interests"
)

// adminScore is the sentinel returned to the admin login without consulting
// the scorer or the store.
const adminScore = 42

// Context accumulates per-request observability facts ("has", "nclients")
// for the access log. One instance lives for one request.
type Context map[string]interface{}

// Scorer is the business collaborator behind both methods.
type Scorer interface {
	Score(ctx context.Context, t scoring.Traits) (float64, error)
	InterestsFor(ctx context.Context, clientID int64) ([]string, error)
}

var envelopeSchema = validate.NewSchema(
	validate.F("account", validate.Char()),
	validate.F("login", validate.Char().Required()),
	validate.F("token", validate.Char().Required()),
	validate.F("arguments", validate.Arguments().Required()),
	validate.F("method", validate.Char().Required().NonNullable()),
)

func onlineScoreFields() []validate.Field {
	return []validate.Field{
		validate.F("first_name", validate.Char()),
		validate.F("last_name", validate.Char()),
		validate.F("email", validate.Email()),
		validate.F("phone", validate.Phone()),
		validate.F("birthday", validate.BirthDay()),
		validate.F("gender", validate.Gender()),
	}
}

// scoreSufficiency requires at least one complete trait pair. Values count
// when present and non-empty in coerced form, so gender 0 (coerced "0")
// qualifies.
func scoreSufficiency(r *validate.Result) *validate.Error {
	if r.String("phone") != "" && r.String("email") != "" {
		return nil
	}
	if r.String("first_name") != "" && r.String("last_name") != "" {
		return nil
	}
	if _, hasBirthday := r.Time("birthday"); hasBirthday && r.String("gender") != "" {
		return nil
	}
	return &validate.Error{Reason: "at least one pair of phone/email, first_name/last_name or gender/birthday is required"}
}

var (
	onlineScoreSchema = validate.NewSchema(onlineScoreFields()...).WithInvariant(scoreSufficiency)

	// The admin login bypasses the sufficiency invariant; field-level
	// validation still applies.
	onlineScoreAdminSchema = validate.NewSchema(onlineScoreFields()...)

	clientsInterestsSchema = validate.NewSchema(
		validate.F("client_ids", validate.ClientIDs().Required()),
		validate.F("date", validate.Date()),
	)
)

// Dispatcher routes decoded envelopes to method handlers. Stateless apart
// from its collaborators; safe for concurrent use.
type Dispatcher struct {
	auth   *auth.Authenticator
	scorer Scorer
	log    *logging.Logger
}

// NewDispatcher wires the dispatcher to its collaborators.
func NewDispatcher(a *auth.Authenticator, scorer Scorer, log *logging.Logger) *Dispatcher {
	return &Dispatcher{auth: a, scorer: scorer, log: log}
}

// Dispatch runs one request through decode, auth, routing and execution.
// It returns the response body and the result code; for error codes the
// body is either nil (default message) or a user-safe message string.
func (d *Dispatcher) Dispatch(ctx context.Context, body map[string]interface{}, dctx Context) (interface{}, int) {
	resp, code, methodName := d.dispatch(ctx, body, dctx)
	metrics.RecordDispatch(methodName, code)
	return resp, code
}

func (d *Dispatcher) dispatch(ctx context.Context, body map[string]interface{}, dctx Context) (interface{}, int, string) {
	env, err := envelopeSchema.Decode(body)
	if err != nil {
		d.log.WithContext(ctx).WithError(err).Error("invalid request envelope")
		return err.Error(), errors.InvalidRequest, ""
	}

	creds := auth.Credentials{
		Account: env.String("account"),
		Login:   env.String("login"),
		Token:   env.String("token"),
	}
	if !d.auth.Check(creds) {
		d.log.WithContext(ctx).WithField("login", creds.Login).Error("wrong authentication token")
		return nil, errors.Forbidden, ""
	}

	methodName := env.String("method")
	switch methodName {
	case MethodOnlineScore:
		resp, code := d.onlineScore(ctx, creds.Login, env.Map("arguments"), dctx)
		return resp, code, methodName
	case MethodClientsInterests:
		resp, code := d.clientsInterests(ctx, env.Map("arguments"), dctx)
		return resp, code, methodName
	default:
		d.log.WithContext(ctx).WithField("method", methodName).Error("unknown method")
		return nil, errors.NotFound, methodName
	}
}

func (d *Dispatcher) onlineScore(ctx context.Context, login string, args map[string]interface{}, dctx Context) (interface{}, int) {
	if args == nil {
		args = map[string]interface{}{}
	}

	isAdmin := d.auth.IsAdmin(login)
	schema := onlineScoreSchema
	if isAdmin {
		schema = onlineScoreAdminSchema
	}

	res, err := schema.Decode(args)
	if err != nil {
		d.log.WithContext(ctx).WithError(err).Error("invalid online_score arguments")
		return err.Error(), errors.InvalidRequest
	}
	dctx["has"] = res.Present()

	if isAdmin {
		return map[string]interface{}{"score": adminScore}, errors.OK
	}

	birthday, _ := res.Time("birthday")
	traits := scoring.Traits{
		FirstName: res.String("first_name"),
		LastName:  res.String("last_name"),
		Email:     res.String("email"),
		Phone:     res.String("phone"),
		Gender:    res.String("gender"),
		Birthday:  birthday,
	}

	score, err2 := d.scorer.Score(ctx, traits)
	if err2 != nil {
		d.log.WithContext(ctx).WithError(err2).Error("score computation failed")
		return nil, errors.InternalError
	}
	return map[string]interface{}{"score": score}, errors.OK
}

func (d *Dispatcher) clientsInterests(ctx context.Context, args map[string]interface{}, dctx Context) (interface{}, int) {
	if args == nil {
		args = map[string]interface{}{}
	}

	res, err := clientsInterestsSchema.Decode(args)
	if err != nil {
		d.log.WithContext(ctx).WithError(err).Error("invalid clients_interests arguments")
		return err.Error(), errors.InvalidRequest
	}

	ids := res.Int64s("client_ids")
	result := make(map[string]interface{}, len(ids))
	for _, id := range ids {
		interests, ierr := d.scorer.InterestsFor(ctx, id)
		if ierr != nil {
			d.log.WithContext(ctx).WithError(ierr).Error("interests lookup failed")
			return nil, errors.InternalError
		}
		result[strconv.FormatInt(id, 10)] = interests
	}
	dctx["nclients"] = len(result)
	return result, errors.OK
}
