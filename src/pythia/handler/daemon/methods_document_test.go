package daemon

import (
	"context"
	"errors"
	"testing"

	"github.com/pythia-ide/pythia/src/pythia/controller/daemon/daemonmock"
	"github.com/stretchr/testify/assert"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/mock/gomock"
)

func TestDocumentMethods(t *testing.T) {

	tests := []struct {
		name             string
		method           string
		setReturn        func(c *daemonmock.MockController, result interface{}, err error)
		params           interface{}
		controllerResult interface{}
	}{
		{
			name:   "DidOpen",
			method: protocol.MethodTextDocumentDidOpen,
			setReturn: func(c *daemonmock.MockController, result interface{}, err error) {
				c.EXPECT().DidOpen(gomock.Any(), gomock.Any()).Return(err)
			},
			params: protocol.DidOpenTextDocumentParams{},
		},
		{
			name:   "DidChange",
			method: protocol.MethodTextDocumentDidChange,
			setReturn: func(c *daemonmock.MockController, result interface{}, err error) {
				c.EXPECT().DidChange(gomock.Any(), gomock.Any()).Return(err)
			},
			params: protocol.DidChangeTextDocumentParams{},
		},
		{
			name:   "DidClose",
			method: protocol.MethodTextDocumentDidClose,
			setReturn: func(c *daemonmock.MockController, result interface{}, err error) {
				c.EXPECT().DidClose(gomock.Any(), gomock.Any()).Return(err)
			},
			params: protocol.DidCloseTextDocumentParams{},
		},
		{
			name:   "DidSave",
			method: protocol.MethodTextDocumentDidSave,
			setReturn: func(c *daemonmock.MockController, result interface{}, err error) {
				c.EXPECT().DidSave(gomock.Any(), gomock.Any()).Return(err)
			},
			params: protocol.DidSaveTextDocumentParams{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ctx := context.Background()
			replier := newMockReplier()

			c := daemonmock.NewMockController(ctrl)
			r := jsonRPCRouter{daemon: c}

			// Valid params.
			tt.setReturn(c, tt.controllerResult, nil)
			req, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), tt.method, tt.params)
			err := r.HandleReq(ctx, replier, req)
			assert.NoError(t, err)

			// Invalid params.
			if tt.params != nil {
				req, _ = jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), tt.method, 5)
				err = r.HandleReq(ctx, replier, req)
				assert.Error(t, err)
			}

			// Controller error.
			tt.setReturn(c, tt.controllerResult, errors.New("err"))
			req, _ = jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), tt.method, tt.params)
			err = r.HandleReq(ctx, replier, req)
			assert.Error(t, err)
		})
	}
}
