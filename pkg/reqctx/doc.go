// Package reqctx carries request-scoped values through context.Context:
// the request metadata set for every request, the authenticated Principal,
// and the ClinicScope resolved on clinic routes.
//
// Middleware sets them in that order:
//
//	ctx = reqctx.WithRequestMeta(ctx, meta)
//	ctx = reqctx.WithPrincipal(ctx, &reqctx.Principal{UserID: uid, Credential: reqctx.CredentialSession})
//	ctx = reqctx.WithClinicScope(ctx, scope)
//
// A handler behind the clinic scope middleware never sees a request without
// a scope. An API token principal always scopes to the token's clinic.
package reqctx
