// Package entitlement decides whether a user may use a feature or create one
// more metered item.
//
// Evaluator is the pure part: given a tier and, for limits, the caller's
// current usage, it consults the plan catalog and returns a Decision. It does
// no I/O and keeps no state, so one instance is shared by every request.
//
// Service wraps the Evaluator for request handlers. It resolves the usage
// window for a session, asks the usage Accountant for the count and returns
// the Decision. Storage failures surface as ErrStorageUnavailable and the
// request is denied; usage is never assumed to be zero.
//
// Denials are typed: *FeatureError unwraps to ErrFeatureNotEntitled and
// *QuotaError unwraps to ErrQuotaExceeded. Both carry what the caller needs to
// render an upgrade prompt.
//
//	if err := svc.Require(ctx, sess, plan.LimitInterviews); err != nil {
//	    var qe *entitlement.QuotaError
//	    if errors.As(err, &qe) {
//	        // qe.Decision.Limit, qe.Decision.Used
//	    }
//	    return err
//	}
package entitlement
