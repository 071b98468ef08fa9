// Package http provides request and response helpers for the introspection
// endpoints.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//
//	name  := req.RouteParam("name")      // chi route parameter
//	quals := req.QueryAll("q")           // ?q=@a&q=@b or ?q=@a,@b
//	env   := req.Query("env", "local")
//
// # Response
//
//	res := gohttp.NewResponse(w)
//
//	res.JSON(200, data)           // raw JSON with status
//	res.Success(data)             // 200 {"data": ...}
//	res.Error(409, "ambiguous")   // {"message": "ambiguous"}
//	res.NotFound()                // 404 {"message": "Not found."}
//	res.ServerError()             // 500 {"message": "Server Error."}
//	res.ValidationError(errs)     // 422 {"errors": {"field": ["msg"]}}
package http
