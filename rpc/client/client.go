package client

import (
	"sync"

	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/serializer"
	"github.com/ValentinKolb/mKV/rpc/transport"
	"github.com/cockroachdb/errors"
)

// NewRPCClient creates a new RPC client
// The function takes a config, a transport and a serializer as parameters.
// It connects the transport, the database session is opened with Connect.
func NewRPCClient(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (*RPCClient, error) {

	// Connect the transport
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &RPCClient{
		rpcClientAdapter: rpcClientAdapter{
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

// RPCClient is a session against one database of a server.
// It is safe for concurrent use.
type RPCClient struct {
	rpcClientAdapter

	mu          sync.RWMutex
	uid         string
	name        string
	compression bool
}

// --------------------------------------------------------------------------
// Session
// --------------------------------------------------------------------------

// Connect resolves the database name and routes all following commands to it
func (c *RPCClient) Connect(name string) error {
	resp, err := invokeRPCRequest(common.NewDBConnectRequest(name), c.transport, c.serializer)
	if err != nil {
		return err
	}
	uid, ok := common.AsString(resp.Content.Datas)
	if !ok || uid == "" {
		return errors.Newf("unexpected DBCONNECT result %v", resp.Content.Datas)
	}

	c.mu.Lock()
	c.uid = uid
	c.name = name
	c.mu.Unlock()

	Logger.Debugf("Connected to database %s (%s)", name, uid)
	return nil
}

// UID returns the uid of the connected database, or "" before Connect
func (c *RPCClient) UID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.uid
}

// Database returns the name of the connected database
func (c *RPCClient) Database() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// SetCompression asks the server to compress successful responses
func (c *RPCClient) SetCompression(enabled bool) {
	c.mu.Lock()
	c.compression = enabled
	c.mu.Unlock()
}

// Close closes the transport
func (c *RPCClient) Close() error {
	return c.transport.Close()
}

// invoke sends a request routed to the connected database
func (c *RPCClient) invoke(req *common.Request) (*common.Response, error) {
	c.mu.RLock()
	uid, compression := c.uid, c.compression
	c.mu.RUnlock()

	if uid == "" {
		return nil, ErrNotConnected
	}
	if req.DBUID == "" {
		req.DBUID = uid
	}
	req.Meta.Compression = compression
	return invokeRPCRequest(req, c.transport, c.serializer)
}

// --------------------------------------------------------------------------
// Data Commands
// --------------------------------------------------------------------------

// Get returns the value of key. A missing key is an *Error of kind KeyNotFound.
func (c *RPCClient) Get(key []byte) ([]byte, error) {
	resp, err := c.invoke(common.NewGetRequest("", key))
	if err != nil {
		return nil, err
	}
	value, ok := common.AsBytes(resp.Content.Datas)
	if !ok {
		return nil, errors.Newf("unexpected GET result of type %s", common.TypeName(resp.Content.Datas))
	}
	return value, nil
}

func (c *RPCClient) Put(key, value []byte) error {
	_, err := c.invoke(common.NewPutRequest("", key, value))
	return err
}

func (c *RPCClient) Delete(key []byte) error {
	_, err := c.invoke(common.NewDeleteRequest("", key))
	return err
}

// MGet returns one value per key in input order, nil for missing keys.
// missed is true if at least one key did not exist.
func (c *RPCClient) MGet(keys [][]byte) (values [][]byte, missed bool, err error) {
	resp, err := c.invoke(common.NewMGetRequest("", keys))
	if err != nil {
		return nil, false, err
	}

	list, ok := common.AsList(resp.Content.Datas)
	if !ok && resp.Content.Datas != nil {
		return nil, false, errors.Newf("unexpected MGET result of type %s", common.TypeName(resp.Content.Datas))
	}

	values = make([][]byte, len(list))
	for i, v := range list {
		if v == nil {
			continue
		}
		if values[i], ok = common.AsBytes(v); !ok {
			return nil, false, errors.Newf("unexpected MGET value of type %s", common.TypeName(v))
		}
	}
	return values, resp.Header.Status == common.StatusWarning, nil
}

// Range returns all pairs with from <= key < to. A nil bound is open.
func (c *RPCClient) Range(from, to []byte) ([]KV, error) {
	resp, err := c.invoke(common.NewRangeRequest("", from, to))
	if err != nil {
		return nil, err
	}
	return toPairs(resp.Content.Datas)
}

// Slice returns at most n pairs starting at from
func (c *RPCClient) Slice(from []byte, n int) ([]KV, error) {
	resp, err := c.invoke(common.NewSliceRequest("", from, n))
	if err != nil {
		return nil, err
	}
	return toPairs(resp.Content.Datas)
}

// Batch applies all entries atomically. Entries are built with common.PutEntry and common.DeleteEntry.
func (c *RPCClient) Batch(entries ...[]any) error {
	_, err := c.invoke(common.NewBatchRequest("", entries...))
	return err
}

// --------------------------------------------------------------------------
// Database Lifecycle
// --------------------------------------------------------------------------

// CreateDB creates a database and returns its uid. options may be nil.
func (c *RPCClient) CreateDB(name string, options map[string]any) (string, error) {
	resp, err := c.invoke(common.NewDBCreateRequest("", name, options))
	if err != nil {
		return "", err
	}
	uid, ok := common.AsString(resp.Content.Datas)
	if !ok {
		return "", errors.Newf("unexpected DBCREATE result of type %s", common.TypeName(resp.Content.Datas))
	}
	return uid, nil
}

func (c *RPCClient) DropDB(name string) error {
	_, err := c.invoke(common.NewDBDropRequest("", name))
	return err
}

// ListDBs returns one descriptor map per database, sorted by name
func (c *RPCClient) ListDBs() ([]map[string]any, error) {
	resp, err := c.invoke(common.NewDBListRequest(""))
	if err != nil {
		return nil, err
	}

	list, ok := common.AsList(resp.Content.Datas)
	if !ok && resp.Content.Datas != nil {
		return nil, errors.Newf("unexpected DBLIST result of type %s", common.TypeName(resp.Content.Datas))
	}

	descriptors := make([]map[string]any, len(list))
	for i, v := range list {
		if descriptors[i], ok = common.AsMap(v); !ok {
			return nil, errors.Newf("unexpected descriptor of type %s", common.TypeName(v))
		}
	}
	return descriptors, nil
}

// RepairDB repairs the database with the given uid, or the connected database if uid is empty
func (c *RPCClient) RepairDB(uid string) error {
	_, err := c.invoke(common.NewDBRepairRequest("", uid))
	return err
}
