// Package validation checks decoded request payloads against `validate`
// struct tags and reports failures as an error bag.
//
// # Usage
//
//	type instanceRequest struct {
//	    Types []string `json:"types" validate:"omitempty,dive,required"`
//	    Args  []any    `json:"args"  validate:"omitempty,max=16"`
//	}
//
//	if errs := validation.Struct(&body); errs.Has() {
//	    res.ValidationError(errs)
//	}
//
// Field names in the bag are the json names, so the response matches the
// request payload:
//
//	{
//	  "errors": {
//	    "types[0]": ["The types[0] field is required."]
//	  }
//	}
//
// Rules are the go-playground/validator tags; the messages below have
// dedicated wording and every other tag falls back to "The x is invalid.".
//
//   - required
//   - min, max, len
//   - oneof
//   - eqfield
package validation
