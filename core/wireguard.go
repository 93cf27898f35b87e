package core

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ZKyNetOfficial/zkynet-client/database/model"
	"github.com/ZKyNetOfficial/zkynet-client/logger"

	"github.com/vishvananda/netlink"
	"golang.zx2c4.com/wireguard/wgctrl"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// WgManager programs WireGuard interfaces from tunnel records. Key
// exchange and packet encryption stay in the kernel module; this only
// creates the link, loads the config and brings it up.
type WgManager struct {
}

func NewWgManager() *WgManager {
	return &WgManager{}
}

// HasPermission reports whether we can program network interfaces.
// Netlink and wgctrl both need CAP_NET_ADMIN, which in practice means root.
func (m *WgManager) HasPermission() bool {
	return os.Geteuid() == 0
}

// Start creates (or reuses) the interface named after the record, applies
// the parsed bundle and brings the link up.
func (m *WgManager) Start(record *model.TunnelRecord) error {
	iface, err := parseBundle(record.Config)
	if err != nil {
		return fmt.Errorf("parse bundle for %s: %w", record.Name, err)
	}

	link, err := netlink.LinkByName(record.Name)
	if err != nil {
		wgLink := &netlink.Wireguard{LinkAttrs: netlink.LinkAttrs{Name: record.Name}}
		if err := netlink.LinkAdd(wgLink); err != nil {
			return fmt.Errorf("create link %s: %w", record.Name, err)
		}
		link = wgLink
	}

	client, err := wgctrl.New()
	if err != nil {
		return fmt.Errorf("open wgctrl: %w", err)
	}
	defer client.Close()

	if err := client.ConfigureDevice(record.Name, iface.deviceConfig()); err != nil {
		return fmt.Errorf("configure %s: %w", record.Name, err)
	}

	for _, addr := range iface.addresses {
		nlAddr, err := netlink.ParseAddr(addr)
		if err != nil {
			return fmt.Errorf("parse address %s: %w", addr, err)
		}
		if err := netlink.AddrAdd(link, nlAddr); err != nil && !os.IsExist(err) {
			logger.Warningf("assign %s to %s: %v", addr, record.Name, err)
		}
	}

	if err := netlink.LinkSetUp(link); err != nil {
		return fmt.Errorf("link up %s: %w", record.Name, err)
	}
	logger.Infof("wireguard interface %s up, %d peer(s)", record.Name, len(iface.peers))
	return nil
}

// Stop tears the interface down. A missing link is fine.
func (m *WgManager) Stop(name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		if _, ok := err.(netlink.LinkNotFoundError); ok {
			return nil
		}
		return err
	}
	return netlink.LinkDel(link)
}

type wgInterface struct {
	privateKey wgtypes.Key
	listenPort *int
	addresses  []string
	peers      []wgtypes.PeerConfig
}

func (w *wgInterface) deviceConfig() wgtypes.Config {
	return wgtypes.Config{
		PrivateKey:   &w.privateKey,
		ListenPort:   w.listenPort,
		ReplacePeers: true,
		Peers:        w.peers,
	}
}

// parseBundle reads the downloaded credential bundle (wg-quick style ini).
func parseBundle(content string) (*wgInterface, error) {
	iface := &wgInterface{}
	var section string
	var peer *wgtypes.PeerConfig
	seenInterface := false

	flushPeer := func() {
		if peer != nil {
			iface.peers = append(iface.peers, *peer)
			peer = nil
		}
	}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case strings.EqualFold(line, "[Interface]"):
			flushPeer()
			section = "interface"
			seenInterface = true
			continue
		case strings.EqualFold(line, "[Peer]"):
			flushPeer()
			section = "peer"
			peer = &wgtypes.PeerConfig{ReplaceAllowedIPs: true}
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch section {
		case "interface":
			if err := iface.setField(key, value); err != nil {
				return nil, err
			}
		case "peer":
			if err := setPeerField(peer, key, value); err != nil {
				return nil, err
			}
		}
	}
	flushPeer()

	if !seenInterface {
		return nil, fmt.Errorf("bundle has no interface section")
	}
	if len(iface.peers) == 0 {
		return nil, fmt.Errorf("bundle has no peer section")
	}
	return iface, nil
}

func (w *wgInterface) setField(key string, value string) error {
	switch strings.ToLower(key) {
	case "privatekey":
		k, err := wgtypes.ParseKey(value)
		if err != nil {
			return fmt.Errorf("interface private key: %w", err)
		}
		w.privateKey = k
	case "address":
		for _, a := range strings.Split(value, ",") {
			w.addresses = append(w.addresses, strings.TrimSpace(a))
		}
	case "listenport":
		p, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("interface listen port: %w", err)
		}
		w.listenPort = &p
	}
	return nil
}

func setPeerField(peer *wgtypes.PeerConfig, key string, value string) error {
	switch strings.ToLower(key) {
	case "publickey":
		k, err := wgtypes.ParseKey(value)
		if err != nil {
			return fmt.Errorf("peer public key: %w", err)
		}
		peer.PublicKey = k
	case "presharedkey":
		k, err := wgtypes.ParseKey(value)
		if err != nil {
			return fmt.Errorf("peer preshared key: %w", err)
		}
		peer.PresharedKey = &k
	case "allowedips":
		for _, cidr := range strings.Split(value, ",") {
			_, ipNet, err := net.ParseCIDR(strings.TrimSpace(cidr))
			if err != nil {
				return fmt.Errorf("peer allowed ips: %w", err)
			}
			peer.AllowedIPs = append(peer.AllowedIPs, *ipNet)
		}
	case "endpoint":
		addr, err := net.ResolveUDPAddr("udp", value)
		if err != nil {
			return fmt.Errorf("peer endpoint: %w", err)
		}
		peer.Endpoint = addr
	case "persistentkeepalive":
		secs, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("peer keepalive: %w", err)
		}
		interval := time.Duration(secs) * time.Second
		peer.PersistentKeepaliveInterval = &interval
	}
	return nil
}
