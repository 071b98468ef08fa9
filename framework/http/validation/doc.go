// Package validation checks flat string maps against pipe-separated rule
// strings. The bean manifest and the configuration loader use it.
//
// # Basic Usage
//
//	v := validation.Make(map[string]string{
//	    "name":  "toolbar",
//	    "scope": "singleton",
//	}, validation.Rules{
//	    "name":  "required|alpha_dash|max:64",
//	    "scope": "sometimes|in:singleton,dependent",
//	})
//
//	if v.Fails() {
//	    return v.Errors() // *Errors implements error
//	}
//
// # Available Rules
//
//   - required         field must be present and non-empty
//   - sometimes        skips all rules silently if field is absent
//   - min:n, max:n     UTF-8 length bounds
//   - in:a,b,c         value must be in the comma-separated list
//   - alpha_dash       letters, numbers, dashes, underscores
//   - regex:pattern    must match; the pattern cannot contain '|'
//   - boolean          anything strconv.ParseBool accepts
//
// Rules run in order and stop at the first failure of a field. Fields are
// validated in sorted order.
//
// # Error Bag
//
//	{
//	  "errors": {
//	    "name": ["The name field is required."]
//	  }
//	}
package validation
