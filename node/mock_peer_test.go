package node

import (
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/virtualvoting/hashgraph/event"
	"github.com/virtualvoting/hashgraph/transport"
)

// MockPeer is a hand-written gomock double for transport.Peer, shaped
// the way mockgen would generate it, so node tests can simulate an
// unreachable or misbehaving peer without a real transport.
type MockPeer struct {
	ctrl     *gomock.Controller
	recorder *MockPeerMockRecorder
}

// MockPeerMockRecorder exposes EXPECT().Method(...) call matchers.
type MockPeerMockRecorder struct {
	mock *MockPeer
}

// NewMockPeer creates a MockPeer controlled by ctrl.
func NewMockPeer(ctrl *gomock.Controller) *MockPeer {
	mock := &MockPeer{ctrl: ctrl}
	mock.recorder = &MockPeerMockRecorder{mock}
	return mock
}

// EXPECT returns the object that allows setting expectations.
func (m *MockPeer) EXPECT() *MockPeerMockRecorder {
	return m.recorder
}

// GetSync mocks transport.Peer's GetSync.
func (m *MockPeer) GetSync(requester event.PeerID) (event.Hash, transport.DAGSlice, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetSync", requester)
	ret0, _ := ret[0].(event.Hash)
	ret1, _ := ret[1].(transport.DAGSlice)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// GetSync indicates an expected call of GetSync.
func (mr *MockPeerMockRecorder) GetSync(requester interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetSync", reflect.TypeOf((*MockPeer)(nil).GetSync), requester)
}

// ID mocks transport.Peer's ID.
func (m *MockPeer) ID() event.PeerID {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ID")
	ret0, _ := ret[0].(event.PeerID)
	return ret0
}

// ID indicates an expected call of ID.
func (mr *MockPeerMockRecorder) ID() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ID", reflect.TypeOf((*MockPeer)(nil).ID))
}
