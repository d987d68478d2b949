package server

import "github.com/ValentinKolb/mKV/rpc/common"

// buildEnvelope wraps a result into the response sent to the client.
// Failures are never compressed, otherwise the request decides.
func buildEnvelope(req *common.Request, res Result) common.Response {
	if res.Status == common.StatusFailure {
		f := res.Err
		if f == nil {
			f = &Failure{Kind: common.KindRuntimeError, Msg: "unknown failure"}
		}
		return common.Response{
			Header: common.Header{
				Status:  common.StatusFailure,
				ErrCode: f.Kind,
				ErrMsg:  f.Msg,
			},
		}
	}

	compression := req != nil && req.Meta.Compression
	return common.Response{
		Header: common.Header{
			Status:      res.Status,
			Compression: compression,
		},
		Content: common.Content{
			Datas:       res.Value,
			Compression: compression,
		},
	}
}
