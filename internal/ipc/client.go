package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Lingocast.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Lingocast.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Submit asks the daemon to validate and upload a local asset.
func (c *Client) Submit(path string, languages []string) (*SubmitResponse, error) {
	var resp SubmitResponse
	req := SubmitRequest{Path: path, Languages: languages}
	if err := c.client.Call("Lingocast.Submit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobList returns all known jobs.
func (c *Client) JobList() (*JobListResponse, error) {
	var resp JobListResponse
	if err := c.client.Call("Lingocast.JobList", JobListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobDescribe returns details for a single job.
func (c *Client) JobDescribe(id string) (*JobDescribeResponse, error) {
	var resp JobDescribeResponse
	req := JobDescribeRequest{ID: id}
	if err := c.client.Call("Lingocast.JobDescribe", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddLanguages unions new output languages into a job.
func (c *Client) AddLanguages(id string, languages []string) (*AddLanguagesResponse, error) {
	var resp AddLanguagesResponse
	req := AddLanguagesRequest{ID: id, Languages: languages}
	if err := c.client.Call("Lingocast.AddLanguages", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Tracks returns a job's caption tracks.
func (c *Client) Tracks(id string) (*TracksResponse, error) {
	var resp TracksResponse
	req := TracksRequest{ID: id}
	if err := c.client.Call("Lingocast.Tracks", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Manifests returns a job's discovered manifests.
func (c *Client) Manifests(id string) (*ManifestsResponse, error) {
	var resp ManifestsResponse
	req := ManifestsRequest{ID: id}
	if err := c.client.Call("Lingocast.Manifests", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SelectProtocol switches a job's playback protocol.
func (c *Client) SelectProtocol(id, protocol string) (*SelectProtocolResponse, error) {
	var resp SelectProtocolResponse
	req := SelectProtocolRequest{ID: id, Protocol: protocol}
	if err := c.client.Call("Lingocast.SelectProtocol", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
