/*
Package hooks implements an ICS-20 middleware acting on the memo of received
transfers. A "wasm" memo pays the received funds into a contract call made
from an intermediate account derived from the channel and the original
sender. A "forward" memo sends the funds on to another chain and holds the
acknowledgement of the received packet until the forward completes. Outgoing
transfers may name an "ibc_callback" contract notified of their outcome.
*/
package hooks
