// Package relay implements the message pipeline: watch sensor topics,
// synthesize hop events for each observed message, acknowledge readings back
// to their publishers and correlate broker confirmations via publish handles.
package relay
