/*
Package ratelimiting implements a middleware that caps the amount of each
denomination allowed to leave or enter the chain over ICS-20 within a window
of block time. It wraps the channel keeper as an ICS4Wrapper on the send path
and the transfer application as an IBC middleware on the receive path.
*/
package ratelimiting
