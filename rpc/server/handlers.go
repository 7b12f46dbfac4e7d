package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"

	"github.com/ValentinKolb/tKV/lib/storage"
	"github.com/ValentinKolb/tKV/rpc/common"
)

// maxBodySize limits request bodies
const maxBodySize = 16 << 20

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// errBadRequest marks errors caused by malformed input
var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		Logger.Warningf("cannot write response: %v", err)
	}
}

// writeError answers with an ErrorResponse and a status derived from err
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	resp := common.ErrorResponse{Error: err.Error()}

	if errors.Is(err, errBadRequest) {
		status = http.StatusBadRequest
	} else {
		kind := storage.KindOf(err)
		resp.Kind = kind.String()
		switch kind {
		case storage.KindValueNotFound:
			status = http.StatusNotFound
		case storage.KindInvalidValueType:
			status = http.StatusConflict
		default:
			Logger.Errorf("request failed: %v", err)
		}
	}
	writeJSON(w, status, resp)
}

// decode reads a JSON body into dst. Empty bodies are accepted if optional.
func decode(r *http.Request, dst any, optional bool) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: cannot read body: %v", errBadRequest, err)
	}
	if len(body) == 0 && optional {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func success(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, common.SuccessResponse{Success: true})
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

func (s *Server) handleGetAllKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.GetAllKeys(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.GetAllKeysResponse{Keys: keys})
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	var req common.SetRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	if req.Key == "" {
		writeError(w, fmt.Errorf("%w: key must not be empty", errBadRequest))
		return
	}

	ttl := storage.NoExpiry
	if req.TTL != nil {
		ttl = *req.TTL
	}
	if err := s.store.Set(r.Context(), req.Key, req.Value.ToValue(ttl)); err != nil {
		writeError(w, err)
		return
	}
	success(w)
}

func (s *Server) handleDeletePrefix(w http.ResponseWriter, r *http.Request) {
	var req common.DeleteKeysRequest
	if err := decode(r, &req, true); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.DeletePrefix(r.Context(), req.Prefix); err != nil {
		writeError(w, err)
		return
	}
	success(w)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	v, found, err := s.store.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, common.GetResponse{})
		return
	}

	wire, err := common.FromValue(v)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.GetResponse{Value: &wire, TTL: &v.TTL})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("key")); err != nil {
		writeError(w, err)
		return
	}
	success(w)
}

func (s *Server) handleIncrement(w http.ResponseWriter, r *http.Request) {
	s.handleCounter(w, r, s.store.Increment)
}

func (s *Server) handleDecrement(w http.ResponseWriter, r *http.Request) {
	s.handleCounter(w, r, s.store.Decrement)
}

type counterFunc = func(ctx context.Context, key string, delta int64, def *int64) (*storage.Value, error)

func (s *Server) handleCounter(w http.ResponseWriter, r *http.Request, op counterFunc) {
	var req common.CounterRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	v, err := op(r.Context(), r.PathValue("key"), req.Value, req.Default)
	if err != nil {
		writeError(w, err)
		return
	}
	n, err := v.Int64()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.CounterResponse{Value: n})
}

// handleGetTTL reports absent keys as ttl -1 instead of failing
func (s *Server) handleGetTTL(w http.ResponseWriter, r *http.Request) {
	ttl, err := s.store.GetTTL(r.Context(), r.PathValue("key"))
	if errors.Is(err, storage.ErrValueNotFound) {
		ttl, err = storage.NoExpiry, nil
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.GetTTLResponse{TTL: ttl})
}

func (s *Server) handleSetTTL(w http.ResponseWriter, r *http.Request) {
	var req common.SetTTLRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.UpdateTTL(r.Context(), r.PathValue("key"), req.TTL); err != nil {
		writeError(w, err)
		return
	}
	success(w)
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, common.InfoResponse{
		Version:   s.info.Version,
		Go:        runtime.Version(),
		BuildDate: s.info.BuildDate,
		Backend:   s.config.Backend,
	})
}
