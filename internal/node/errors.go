package node

import "errors"

// Configuration errors, returned synchronously from patch and option calls.
var (
	ErrPatchFull        = errors.New("patch table full")
	ErrSubnetMismatch   = errors.New("output address outside node net:sub-net")
	ErrPatchSealed      = errors.New("patch table is read-only once the receive loop started")
	ErrDuplicateAddress = errors.New("address already patched")
	ErrNilMailbox       = errors.New("nil mailbox")
	ErrPortLocked       = errors.New("port cannot change after the socket is bound")
	ErrNameTooLong      = errors.New("name too long")
	ErrInvalidPort      = errors.New("invalid port")
	ErrInvalidIP        = errors.New("invalid IPv4 address")
	ErrInvalidMAC       = errors.New("invalid MAC address")
	ErrRunning          = errors.New("node already serving")
)
