package render

import (
	"encoding/json"
	"net/http"

	"lending/handler/codes"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/twitchtv/twirp"
)

type H map[string]interface{}

// JSON render with json
func JSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Errorln("render json")
	}
}

// Error write err with the http status of its twirp code
func Error(w http.ResponseWriter, err error) {
	twerr := codes.FromError(err)

	resp := errorResponse{
		Code: codes.Get(twerr.Code()),
		Msg:  twerr.Msg(),
	}

	if c := twerr.Meta(codes.CustomCodeKey); c != "" {
		resp.Code = cast.ToInt(c)
	}

	if twerr.Code() == twirp.Internal {
		resp.Msg = "internal error"
		if ResponseErrorMessageAsHint {
			resp.Hint = twerr.Msg()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(twirp.ServerHTTPStatusFromErrorCode(twerr.Code()))

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logrus.WithError(err).Errorln("render error")
	}
}

// BadRequest bad request error
func BadRequest(w http.ResponseWriter, err error) {
	Error(w, codes.With(twirp.InvalidArgumentError("params", err.Error()), codes.InvalidArguments))
}

// NotFoundRequest not found request error
func NotFoundRequest(w http.ResponseWriter, err error) {
	Error(w, twirp.NotFoundError(err.Error()))
}
